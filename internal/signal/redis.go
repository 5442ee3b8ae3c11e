package signal

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBus fans signals out through Redis pub/sub so that sessions served
// by other processes see them too.
type RedisBus struct {
	client *redis.Client
	prefix string
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client, prefix: "bakery:notifications"}
}

func (b *RedisBus) Publish(ctx context.Context, userID string) error {
	if err := b.client.Publish(ctx, b.channel(userID), "1").Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, userID string, fn func()) (func(), error) {
	ps := b.client.Subscribe(ctx, b.channel(userID))

	// Wait for confirmation so a publish right after Subscribe is not lost.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe failed: %w", err)
	}

	ch := ps.Channel()
	go func() {
		for range ch {
			fn()
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = ps.Close()
		})
	}, nil
}

func (b *RedisBus) Close() error {
	return nil
}

func (b *RedisBus) channel(userID string) string {
	return fmt.Sprintf("%s:%s", b.prefix, userID)
}
