package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/bakehouse/internal/cart"
	"github.com/fjod/bakehouse/internal/config"
	"github.com/fjod/bakehouse/internal/delivery"
	"github.com/fjod/bakehouse/internal/events"
	bakerygrpc "github.com/fjod/bakehouse/internal/grpc"
	h "github.com/fjod/bakehouse/internal/http"
	"github.com/fjod/bakehouse/internal/inventory"
	"github.com/fjod/bakehouse/internal/logger"
	"github.com/fjod/bakehouse/internal/notification"
	"github.com/fjod/bakehouse/internal/order"
	"github.com/fjod/bakehouse/internal/profile"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)
	logger.Info("bakery starting", "provider", cfg.Provider, "signal_bus", cfg.SignalBus)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	ctx := context.Background()
	var cl closers
	defer func() { cl.closeAll(logger) }()

	// Redis is shared by the signal bus and the catalog cache.
	var rdbClient *redis.Client
	rdb := func() (*redis.Client, error) {
		if rdbClient != nil {
			return rdbClient, nil
		}
		c, err := newRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		cl.add("redis", c.Close)
		rdbClient = c
		return c, nil
	}

	bus, err := buildBus(ctx, cfg, rdb, logger, &cl)
	if err != nil {
		log.Fatalf("Failed to set up signal bus: %v", err)
	}
	store, err := openProvider(ctx, cfg, bus, logger, &cl)
	if err != nil {
		log.Fatalf("Failed to open provider: %v", err)
	}
	catalogCache, err := buildCatalogCache(cfg, rdb)
	if err != nil {
		log.Fatalf("Failed to set up catalog cache: %v", err)
	}
	snapshots, err := buildCartSnapshots(ctx, cfg, logger, &cl)
	if err != nil {
		log.Fatalf("Failed to set up cart snapshots: %v", err)
	}
	policy, err := order.ParseTransitionPolicy(cfg.OrderTransitions)
	if err != nil {
		log.Fatalf("Invalid ORDER_TRANSITIONS: %v", err)
	}

	ledger := inventory.NewLedger(store,
		inventory.WithCache(catalogCache),
		inventory.WithLowStockThreshold(cfg.LowStockThreshold),
		inventory.WithLogger(logger.With("component", "inventory")),
	)
	notes := notification.NewRepository(store)
	orders := order.NewService(store, ledger, notes,
		order.WithTransitionPolicy(policy),
		order.WithEvents(buildPublisher(cfg, logger, &cl)),
		order.WithLogger(logger.With("component", "orders")),
	)
	carts := cart.NewRegistry(snapshots, logger.With("component", "cart"))
	profiles := profile.NewService(store, logger.With("component", "profile"))
	channel := delivery.NewChannel(notes, store,
		delivery.WithToastTTL(cfg.ToastTTL),
		delivery.WithLogger(logger.With("component", "delivery")),
	)

	var wg sync.WaitGroup
	workerCtx, workerCancel := context.WithCancel(ctx)
	var mailer *events.MailConsumer
	if cfg.KafkaEnabled && cfg.MailerEnabled {
		mailer = events.NewMailConsumer(events.LogMailer{Logger: logger.With("component", "mailer")}, logger, cfg.KafkaBrokers...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			mailer.Run(workerCtx)
		}()
	}

	// HTTP API
	httpLogger := logger.With("component", "http")
	router := h.NewRouter(h.Handlers{
		Catalog:       h.NewCatalogHandler(ledger, cfg.RequestTimeout, httpLogger),
		Cart:          h.NewCartHandler(carts, ledger, orders, cfg.RequestTimeout, httpLogger),
		Orders:        h.NewOrdersHandler(orders, cfg.RequestTimeout, httpLogger),
		Notifications: h.NewNotificationsHandler(notes, cfg.RequestTimeout, httpLogger),
		Profile:       h.NewProfileHandler(profiles, cfg.RequestTimeout, httpLogger),
	}, cfg.RequestTimeout, httpLogger)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "bakery-api"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// gRPC notification stream
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	grpcServer := bakerygrpc.NewServer(channel, logger.With("component", "grpc"))
	go func() {
		logger.Info("grpc server listening", "port", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server forced to shutdown", "error", err)
	}
	stopGRPC(shutdownCtx, grpcServer.GracefulStop, grpcServer.Stop)
	workerCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("mail consumer didn't stop in time")
	}
	if mailer != nil {
		mailer.Close()
	}
	logger.Info("bakery stopped")
}

// stopGRPC waits for streams to drain, forcing them closed once ctx ends.
// Live notification streams only end when clients leave.
func stopGRPC(ctx context.Context, graceful, force func()) {
	done := make(chan struct{})
	go func() {
		graceful()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		force()
		<-done
	}
}
