package events

import (
	"context"

	"phonepe-relay/internal/domain/ports/adapter"
)

// NoopPublisher discards events. Used when events are disabled.
type NoopPublisher struct{}

var _ adapter.EventPublisher = NoopPublisher{}

func (NoopPublisher) Publish(context.Context, adapter.PaymentEvent) error { return nil }
func (NoopPublisher) Close() error                                        { return nil }
