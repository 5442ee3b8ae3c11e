// Command notifywatch prints a user's notifications as they arrive over the
// gRPC notification stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fjod/bakehouse/internal/domain"
	bakerygrpc "github.com/fjod/bakehouse/internal/grpc"
	"github.com/fjod/bakehouse/internal/notification"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	addr := flag.String("addr", getEnv("GRPC_ADDR", "localhost:50051"), "notification stream address")
	userID := flag.String("user", getEnv("USER_ID", ""), "user id to watch")
	name := flag.String("name", getEnv("USER_NAME", ""), "display name")
	existing := flag.Bool("existing", false, "replay stored notifications first")
	flag.Parse()

	if *userID == "" {
		log.Fatal("user id is required (-user or USER_ID)")
	}

	conn, err := grpc.NewClient(*addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()))
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", *addr, err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	who := domain.Identity{UserID: *userID, Role: domain.RoleCustomer, Name: *name}
	err = bakerygrpc.Watch(ctx, conn, who, *existing, func(ev bakerygrpc.Event) error {
		switch ev.Kind {
		case bakerygrpc.EventNotification:
			return printNotification(ev)
		case bakerygrpc.EventToasts:
			return printToasts(ev)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("watch failed: %v", err)
	}
}

func printNotification(ev bakerygrpc.Event) error {
	n := ev.Notification
	marker := "new"
	if ev.Existing {
		marker = "old"
	}
	_, err := fmt.Fprintf(os.Stdout, "[%s] %s %s (%s): %s  unread=%d\n",
		marker, n.CreatedAt.Format("2006-01-02 15:04"), n.OrderID, n.OrderStatus, n.Message, ev.Unread)
	return err
}

// printToasts redraws the popup area; an empty set clears it.
func printToasts(ev bakerygrpc.Event) error {
	if len(ev.Toasts) == 0 {
		_, err := fmt.Fprintln(os.Stdout, "[toast] (none)")
		return err
	}
	for _, t := range ev.Toasts {
		if _, err := fmt.Fprintf(os.Stdout, "[toast] %s: %s\n", notification.Title(t.OrderStatus), t.Message); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
