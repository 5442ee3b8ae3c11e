package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/notification"
	"github.com/segmentio/kafka-go"
)

// Mailer delivers a customer email. Only a logging implementation exists;
// a real SMTP or provider integration plugs in here.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(_ context.Context, to, subject, body string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email sent", "to", to, "subject", subject, "body", body)
	return nil
}

var errNoRecipient = errors.New("event has no recipient")

// MailConsumer turns order status events into customer emails.
type MailConsumer struct {
	reader *kafka.Reader
	mailer Mailer
	logger *slog.Logger
}

func NewMailConsumer(mailer Mailer, logger *slog.Logger, brokers ...string) *MailConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    TopicOrderStatus,
		GroupID:  "bakery-mailer",
		MaxBytes: 10e6, // 10MB
	})
	return &MailConsumer{reader: reader, mailer: mailer, logger: logger}
}

func (c *MailConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *MailConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("error closing kafka reader", "error", err)
	}
}

func (c *MailConsumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Error("error reading message", "error", err)
		return
	}

	if err := c.handle(ctx, m.Value); err != nil {
		c.logger.Warn("status email skipped", "key", string(m.Key), "error", err)
	}
}

func (c *MailConsumer) handle(ctx context.Context, value []byte) error {
	var ev OrderStatusChanged
	if err := json.Unmarshal(value, &ev); err != nil {
		return fmt.Errorf("parse event: %w", err)
	}
	if ev.CustomerEmail == "" {
		return errNoRecipient
	}

	subject, body := renderEmail(ev)
	if err := c.mailer.Send(ctx, ev.CustomerEmail, subject, body); err != nil {
		return fmt.Errorf("send email for %s: %w", ev.OrderID, err)
	}
	return nil
}

func renderEmail(ev OrderStatusChanged) (string, string) {
	subject := fmt.Sprintf("%s: order #%s", notification.Title(ev.To), domain.ShortID(ev.OrderID))
	body := fmt.Sprintf("Hi %s,\n\n%s\n", ev.CustomerName, notification.Message(ev.OrderID, ev.To))
	return subject, body
}
