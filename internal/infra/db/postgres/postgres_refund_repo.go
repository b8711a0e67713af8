package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"phonepe-relay/internal/domain"
	"phonepe-relay/internal/domain/model"
	"phonepe-relay/internal/domain/ports/repository"
)

var _ repository.RefundRepository = (*refundRepo)(nil)

type refundRepo struct{ pool *pgxpool.Pool }

func NewRefundRepo(pool *pgxpool.Pool) *refundRepo {
	return &refundRepo{pool: pool}
}

func (r *refundRepo) Create(ctx context.Context, tx repository.Tx, rf *model.Refund) error {
	const q = `
INSERT INTO refunds (transaction_id, merchant_transaction_id, amount, status, provider_status)
VALUES ($1, $2, $3::numeric, $4, $5)
RETURNING id, created_at, updated_at;`

	row, err := pickRow(ctx, r.pool, tx, q, rf.TransactionID, rf.MerchantTransactionID, rf.Amount.String(), string(rf.Status), rf.ProviderStatus)
	if err != nil {
		return err
	}
	if err := row.Scan(&rf.ID, &rf.CreatedAt, &rf.UpdatedAt); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *refundRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Refund, error) {
	q := `SELECT id, transaction_id, merchant_transaction_id, amount::text, status, provider_status, created_at, updated_at FROM refunds WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	var (
		rf     model.Refund
		amount string
		status string
	)
	if err := row.Scan(&rf.ID, &rf.TransactionID, &rf.MerchantTransactionID, &amount, &status, &rf.ProviderStatus, &rf.CreatedAt, &rf.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q", domain.ErrReadDatabaseRow, amount)
	}
	rf.Amount = d
	rf.Status = model.RefundStatus(status)
	return &rf, nil
}

func (r *refundRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id int64, status model.RefundStatus, providerStatus string) error {
	const q = `UPDATE refunds SET status=$2, provider_status=$3, updated_at=NOW() WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(status), providerStatus)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
