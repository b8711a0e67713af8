package adapter

import (
	"context"
	"time"
)

const (
	EventPaymentStatusChanged = "payment.status_changed"
	EventRefundStatusChanged  = "refund.status_changed"
)

// PaymentEvent is published after a local state transition.
type PaymentEvent struct {
	ID                    string    `json:"id"`
	Type                  string    `json:"type"`
	MerchantTransactionID string    `json:"merchant_transaction_id"`
	RefundID              int64     `json:"refund_id,omitempty"`
	Status                string    `json:"status"`
	Amount                string    `json:"amount"`
	OccurredAt            time.Time `json:"occurred_at"`
}

// EventPublisher delivers payment events on a best-effort basis.
type EventPublisher interface {
	Publish(ctx context.Context, ev PaymentEvent) error
	Close() error
}
