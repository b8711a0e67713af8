package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"phonepe-relay/internal/domain/ports/adapter"
)

// publish sends ev best-effort; a broker outage must not fail a payment.
func publish(ctx context.Context, pub adapter.EventPublisher, log *zerolog.Logger, ev adapter.PaymentEvent) {
	if pub == nil {
		return
	}
	ev.ID = uuid.NewString()
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", ev.Type).Msg("event publish failed")
	}
}
