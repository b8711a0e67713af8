package repository

import (
	"context"
	"time"

	"phonepe-relay/internal/domain/model"
)

// TransactionRepository persists payment transactions in the primary store.
type TransactionRepository interface {
	// Create inserts t and fills ID/CreatedAt/UpdatedAt. A duplicate merchant
	// transaction id yields domain.ErrAlreadyExists.
	Create(ctx context.Context, tx Tx, t *model.Transaction) error
	FindByMerchantTransactionID(ctx context.Context, tx Tx, merchantTransactionID string) (*model.Transaction, error)
	// UpdateStatus returns domain.ErrNotFound when no row matches.
	UpdateStatus(ctx context.Context, tx Tx, merchantTransactionID string, status model.TransactionStatus) error
	// ListStale returns transactions in one of statuses created before olderThan, oldest first.
	ListStale(ctx context.Context, tx Tx, statuses []model.TransactionStatus, olderThan time.Time, limit int) ([]*model.Transaction, error)
}
