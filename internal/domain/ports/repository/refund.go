package repository

import (
	"context"

	"phonepe-relay/internal/domain/model"
)

type RefundRepository interface {
	Create(ctx context.Context, tx Tx, r *model.Refund) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Refund, error)
	UpdateStatus(ctx context.Context, tx Tx, id int64, status model.RefundStatus, providerStatus string) error
}
