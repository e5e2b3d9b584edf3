// Package notify delivers domain events to the notification collaborator.
// Publishing never blocks the caller on acknowledgement.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"p2p-lending/internal/domain/event"
)

const headerEventName = "event-name"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Kafka publishes event envelopes as JSON, keyed by loan so one loan's
// events land on one partition in order.
type Kafka struct {
	w   messageWriter
	log *slog.Logger
	now func() time.Time
}

// NewKafka builds an async writer: WriteMessages returns immediately and
// delivery errors surface through the completion callback.
func NewKafka(brokers []string, topic string, log *slog.Logger) *Kafka {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafkago.RequireAll,
		Async:                  true,
		AllowAutoTopicCreation: true,
		ErrorLogger:            kafkago.LoggerFunc(func(msg string, args ...interface{}) { log.Error(fmt.Sprintf(msg, args...)) }),
		Completion: func(msgs []kafkago.Message, err error) {
			if err != nil {
				log.Error("event delivery failed", "topic", topic, "count", len(msgs), "err", err)
			}
		},
	}
	return newKafka(w, log)
}

func newKafka(w messageWriter, log *slog.Logger) *Kafka {
	return &Kafka{w: w, log: log, now: time.Now}
}

func (k *Kafka) Publish(ctx context.Context, events ...event.Event) {
	if len(events) == 0 {
		return
	}
	msgs := make([]kafkago.Message, 0, len(events))
	for _, e := range events {
		m, err := encode(event.Wrap(e, k.now()))
		if err != nil {
			k.log.ErrorContext(ctx, "event encode failed", "event", e.Name(), "err", err)
			continue
		}
		msgs = append(msgs, m)
	}
	// the request context may end before the batch flushes
	if err := k.w.WriteMessages(context.WithoutCancel(ctx), msgs...); err != nil {
		k.log.ErrorContext(ctx, "event publish failed", "count", len(msgs), "err", err)
	}
}

func (k *Kafka) Close() error { return k.w.Close() }

func encode(env event.Envelope) (kafkago.Message, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   []byte(env.Payload.Key()),
		Value: body,
		Headers: []kafkago.Header{
			{Key: headerEventName, Value: []byte(env.Name)},
		},
		Time: env.OccurredAt,
	}, nil
}

// Log writes events to the logger; used when no broker is configured.
type Log struct{ log *slog.Logger }

func NewLog(log *slog.Logger) *Log { return &Log{log: log} }

func (l *Log) Publish(ctx context.Context, events ...event.Event) {
	for _, e := range events {
		l.log.InfoContext(ctx, "domain event", "event", e.Name(), "key", e.Key(), "payload", e)
	}
}
