package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"phonepe-relay/internal/domain/ports/adapter"
)

var _ adapter.EventPublisher = (*KafkaPublisher)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes payment events keyed by merchant transaction id, so
// all events of one transaction land on the same partition in order.
type KafkaPublisher struct {
	writer messageWriter
	log    *zerolog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *zerolog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Warn().Err(err).Int("count", len(msgs)).Msg("kafka: event delivery failed")
			}
		},
	}
	return &KafkaPublisher{writer: w, log: log}
}

func (k *KafkaPublisher) Publish(ctx context.Context, ev adapter.PaymentEvent) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.MerchantTransactionID),
		Value: msg,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	})
}

// Close flushes pending async writes.
func (k *KafkaPublisher) Close() error { return k.writer.Close() }
