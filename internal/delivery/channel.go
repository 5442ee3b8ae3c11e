// Package delivery pushes freshly written notifications into live user
// sessions. The transport underneath is at-least-once; each session
// deduplicates by notification id so a notification produces exactly one
// toast per session.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/toast"
)

var (
	ErrNotDeliverable = errors.New("identity does not receive notifications")
	ErrSessionClosed  = errors.New("session closed")
)

// Notifications is the durable list the sessions project.
type Notifications interface {
	List(ctx context.Context, userID string) ([]domain.UserNotification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// Subscriber yields candidate notifications for one user.
type Subscriber interface {
	SubscribeToNotifications(ctx context.Context, userID string, onNew func(domain.UserNotification)) (unsubscribe func(), err error)
}

type Channel struct {
	repo     Notifications
	sub      Subscriber
	toastTTL time.Duration
	logger   *slog.Logger
}

type Option func(*Channel)

func WithToastTTL(ttl time.Duration) Option {
	return func(c *Channel) { c.toastTTL = ttl }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) { c.logger = l }
}

func NewChannel(repo Notifications, sub Subscriber, opts ...Option) *Channel {
	c := &Channel{
		repo:     repo,
		sub:      sub,
		toastTTL: toast.DefaultTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open starts a live session for id. Admins and guests are refused. The
// known set is seeded from the current list, so nothing already stored
// produces a toast.
func (c *Channel) Open(ctx context.Context, id domain.Identity) (*Session, error) {
	if id.IsGuest() || id.IsAdmin() {
		return nil, ErrNotDeliverable
	}

	s := &Session{
		userID: id.UserID,
		repo:   c.repo,
		known:  make(map[string]struct{}),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: c.logger.With("user_id", id.UserID),
	}
	s.toasts = toast.NewQueue(toast.WithTTL(c.toastTTL), toast.WithOnChange(s.toastsChanged))

	// Hold the session lock until seeded; deliveries that race with the
	// initial load wait here and are then deduplicated against it.
	s.mu.Lock()
	unsub, err := c.sub.SubscribeToNotifications(ctx, id.UserID, func(n domain.UserNotification) {
		s.Deliver(n)
	})
	if err != nil {
		s.mu.Unlock()
		s.toasts.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	s.unsubscribe = unsub

	initial, err := c.repo.List(ctx, id.UserID)
	if err != nil {
		s.mu.Unlock()
		s.Close()
		return nil, fmt.Errorf("initial load: %w", err)
	}
	for _, n := range initial {
		s.known[n.ID] = struct{}{}
	}
	s.list = initial
	s.mu.Unlock()

	return s, nil
}
