package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/signal"
)

const refetchTimeout = 5 * time.Second

// ListFunc loads a user's notifications, newest first.
type ListFunc func(ctx context.Context, userID string) ([]domain.UserNotification, error)

// Subscribe turns payload-free signals from bus into candidate
// notifications: every signal for userID re-fetches the list and replays
// it to onNew oldest first. Consumers are expected to dedup by id.
func Subscribe(ctx context.Context, bus signal.Bus, list ListFunc, userID string, onNew func(domain.UserNotification), logger *slog.Logger) (func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	handler := func() {
		fetchCtx, cancel := context.WithTimeout(context.Background(), refetchTimeout)
		defer cancel()

		items, err := list(fetchCtx, userID)
		if err != nil {
			logger.Error("refetch notifications failed", "user_id", userID, "error", err)
			return
		}
		for i := len(items) - 1; i >= 0; i-- {
			onNew(items[i])
		}
	}

	return bus.Subscribe(ctx, userID, handler)
}
