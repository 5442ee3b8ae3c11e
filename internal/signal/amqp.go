package signal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "bakery_notifications"
	ExchangeType = "topic"
)

// AMQPBus publishes signals to a topic exchange with routing key
// user.<id>. Each subscription gets its own exclusive auto-delete queue
// on a dedicated channel.
type AMQPBus struct {
	conn   *amqp.Connection
	mu     sync.Mutex
	pubCh  *amqp.Channel
	logger *slog.Logger
}

// SetupConn dials RabbitMQ with a few retries and declares the exchange.
func SetupConn(url string, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		logger.Warn("rabbitmq connect failed", "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("could not open channel: %w", err)
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(
		ExchangeName, // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("could not declare exchange: %w", err)
	}

	return conn, nil
}

func NewAMQPBus(conn *amqp.Connection, logger *slog.Logger) (*AMQPBus, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("could not open publish channel: %w", err)
	}
	return &AMQPBus{conn: conn, pubCh: ch, logger: logger}, nil
}

func (b *AMQPBus) Publish(ctx context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.pubCh.PublishWithContext(ctx,
		ExchangeName,       // exchange
		routingKey(userID), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType: "text/plain",
			Body:        []byte(userID),
		},
	)
	if err != nil {
		return fmt.Errorf("amqp publish failed: %w", err)
	}
	return nil
}

func (b *AMQPBus) Subscribe(_ context.Context, userID string, fn func()) (func(), error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("could not open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		"",    // random name
		false, // non-durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("could not declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, routingKey(userID), ExchangeName, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("could not bind queue: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer tag
		true,   // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("could not start consume: %w", err)
	}

	go func() {
		for range msgs {
			fn()
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := ch.Close(); err != nil {
				b.logger.Warn("amqp channel close failed", "user_id", userID, "error", err)
			}
		})
	}, nil
}

func (b *AMQPBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pubCh.Close()
}

func routingKey(userID string) string {
	return "user." + userID
}
