package usecase

import (
	"context"
	"encoding/json"

	"phonepe-relay/internal/domain/model"
	"phonepe-relay/internal/domain/ports/repository"
)

// TransactionManager drives the payment side of the relay.
type TransactionManager interface {
	// Initiate validates amount, opens a provider payment session and returns
	// the stored transaction with the URL the user must be redirected to.
	Initiate(ctx context.Context, userID, amount string) (*model.Transaction, string, error)
	// Validate asks the provider for the payment status, stores the mapped
	// status and returns the provider payload on success.
	Validate(ctx context.Context, merchantTransactionID string) (json.RawMessage, error)
	// MarkRefunded flags a transaction after one of its refunds was processed.
	MarkRefunded(ctx context.Context, tx repository.Tx, merchantTransactionID string) error
}

// RefundManager drives refunds against stored transactions.
type RefundManager interface {
	Request(ctx context.Context, merchantTransactionID, amount string) (*model.Refund, json.RawMessage, error)
	CheckStatus(ctx context.Context, refundID string) (*model.Refund, json.RawMessage, error)
}

// AuditRecorder appends audit entries off the request path.
type AuditRecorder interface {
	Record(ctx context.Context, action, details string, metadata json.RawMessage)
	Close()
}
