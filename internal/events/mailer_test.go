package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"gotest.tools/v3/assert"
)

type sentMail struct {
	to, subject, body string
}

type mockMailer struct {
	sent chan sentMail
	err  error
}

func newMockMailer() *mockMailer {
	return &mockMailer{sent: make(chan sentMail, 8)}
}

func (m *mockMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent <- sentMail{to, subject, body}
	return nil
}

func TestHandle_SendsEmail(t *testing.T) {
	mailer := newMockMailer()
	c := &MailConsumer{mailer: mailer}

	payload, err := json.Marshal(sampleEvent())
	require.NoError(t, err)

	assert.NilError(t, c.handle(context.Background(), payload))

	mail := <-mailer.sent
	assert.Equal(t, mail.to, "alice@example.com")
	assert.Equal(t, mail.subject, "Now Baking: order #K4FKA9")
	assert.Assert(t, strings.Contains(mail.body, "Your order #K4FKA9 is now being baked!"))
}

func TestHandle_NoRecipient(t *testing.T) {
	c := &MailConsumer{mailer: newMockMailer()}
	ev := sampleEvent()
	ev.CustomerEmail = ""
	payload, _ := json.Marshal(ev)

	assert.ErrorIs(t, c.handle(context.Background(), payload), errNoRecipient)
}

func TestHandle_Malformed(t *testing.T) {
	c := &MailConsumer{mailer: newMockMailer()}
	assert.ErrorContains(t, c.handle(context.Background(), []byte("{oops")), "parse event")
}

func TestHandle_MailerError(t *testing.T) {
	boom := errors.New("smtp down")
	c := &MailConsumer{mailer: &mockMailer{err: boom}}
	payload, _ := json.Marshal(sampleEvent())

	assert.ErrorIs(t, c.handle(context.Background(), payload), boom)
}

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}
	return brokers[0], cleanup
}

func TestPublishAndConsume_Kafka(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	broker, cleanup := setupKafka(t)
	defer cleanup()

	conn, err := kafkaGo.Dial("tcp", broker)
	require.NoError(t, err)
	require.NoError(t, conn.CreateTopics(kafkaGo.TopicConfig{Topic: TopicOrderStatus, NumPartitions: 1, ReplicationFactor: 1}))
	conn.Close()

	pub := NewKafkaPublisher(nil, broker)
	defer pub.Close()
	require.NoError(t, pub.PublishStatusChanged(context.Background(), sampleEvent()))

	mailer := newMockMailer()
	consumer := NewMailConsumer(mailer, nil, broker)
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	go consumer.Run(ctx)

	select {
	case mail := <-mailer.sent:
		assert.Equal(t, mail.to, "alice@example.com")
	case <-ctx.Done():
		t.Fatal("email not sent")
	}
}
