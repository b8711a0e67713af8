package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"phonepe-relay/internal/domain"
	"phonepe-relay/internal/domain/model"
	"phonepe-relay/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

const transactionColumns = `id, merchant_transaction_id, user_id, amount::text, status, created_at, updated_at`

func (r *transactionRepo) Create(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	const q = `
INSERT INTO transactions (merchant_transaction_id, user_id, amount, status)
VALUES ($1, $2, $3::numeric, $4)
RETURNING id, created_at, updated_at;`

	row, err := pickRow(ctx, r.pool, tx, q, t.MerchantTransactionID, t.UserID, t.Amount.String(), string(t.Status))
	if err != nil {
		return err
	}
	if err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *transactionRepo) FindByMerchantTransactionID(ctx context.Context, tx repository.Tx, merchantTransactionID string) (*model.Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE merchant_transaction_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, merchantTransactionID)
	if err != nil {
		return nil, err
	}
	t, err := scanTransaction(row)
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func (r *transactionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, merchantTransactionID string, status model.TransactionStatus) error {
	const q = `UPDATE transactions SET status=$2, updated_at=NOW() WHERE merchant_transaction_id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, merchantTransactionID, string(status))
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *transactionRepo) ListStale(ctx context.Context, tx repository.Tx, statuses []model.TransactionStatus, olderThan time.Time, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	ss := make([]string, len(statuses))
	for i, s := range statuses {
		ss[i] = string(s)
	}
	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE status = ANY($1) AND created_at < $2 ORDER BY created_at ASC LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, ss, olderThan, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var (
		t      model.Transaction
		amount string
		status string
	)
	if err := row.Scan(&t.ID, &t.MerchantTransactionID, &t.UserID, &amount, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q", domain.ErrReadDatabaseRow, amount)
	}
	t.Amount = d
	t.Status = model.TransactionStatus(status)
	return &t, nil
}
