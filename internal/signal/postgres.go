package signal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

const pgChannel = "bakery_notifications"

// PGBus uses Postgres LISTEN/NOTIFY. One listener connection per process
// receives every signal and fans it out locally by user id.
type PGBus struct {
	db       *sql.DB
	listener *pq.Listener
	local    *Local
	logger   *slog.Logger
	done     chan struct{}
}

func NewPGBus(db *sql.DB, connStr string, logger *slog.Logger) (*PGBus, error) {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("postgres listener event", "event", ev, "error", err)
		}
	}

	listener := pq.NewListener(connStr, 10*time.Second, time.Minute, reportProblem)
	if err := listener.Listen(pgChannel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", pgChannel, err)
	}

	b := &PGBus{
		db:       db,
		listener: listener,
		local:    NewLocal(),
		logger:   logger,
		done:     make(chan struct{}),
	}
	go b.loop()
	return b, nil
}

func (b *PGBus) loop() {
	defer close(b.done)
	for {
		select {
		case n, ok := <-b.listener.Notify:
			if !ok {
				return
			}
			// nil after a reconnect; nothing to route.
			if n == nil {
				continue
			}
			if err := b.local.Publish(context.Background(), n.Extra); err != nil {
				return
			}
		case <-time.After(90 * time.Second):
			go func() {
				if err := b.listener.Ping(); err != nil {
					b.logger.Warn("postgres listener ping failed", "error", err)
				}
			}()
		}
	}
}

func (b *PGBus) Publish(ctx context.Context, userID string) error {
	if _, err := b.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, pgChannel, userID); err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}
	return nil
}

func (b *PGBus) Subscribe(ctx context.Context, userID string, fn func()) (func(), error) {
	return b.local.Subscribe(ctx, userID, fn)
}

func (b *PGBus) Close() error {
	_ = b.local.Close()
	err := b.listener.Close()
	<-b.done
	return err
}
