//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"phonepe-relay/internal/domain"
	"phonepe-relay/internal/domain/model"
)

func TestRefundRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	txns := NewTransactionRepo(testPool)
	repo := NewRefundRepo(testPool)

	setup := func(t *testing.T) *model.Transaction {
		cleanup(t)
		txn := &model.Transaction{
			MerchantTransactionID: "MT-r",
			UserID:                "U1",
			Amount:                decimal.NewFromInt(100),
			Status:                model.TransactionStatusSuccess,
		}
		if err := txns.Create(ctx, nil, txn); err != nil {
			t.Fatalf("failed to save transaction: %v", err)
		}
		return txn
	}

	t.Run("should create, find and update a refund", func(t *testing.T) {
		txn := setup(t)
		rf := &model.Refund{
			TransactionID:         txn.ID,
			MerchantTransactionID: txn.MerchantTransactionID,
			Amount:                decimal.RequireFromString("50"),
			Status:                model.RefundStatusRequested,
		}
		if err := repo.Create(ctx, nil, rf); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		if err := repo.UpdateStatus(ctx, nil, rf.ID, model.RefundStatusProcessed, "COMPLETED"); err != nil {
			t.Fatalf("UpdateStatus failed: %v", err)
		}
		found, err := repo.FindByID(ctx, nil, rf.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if found.Status != model.RefundStatusProcessed || found.ProviderStatus != "COMPLETED" || !found.Amount.Equal(rf.Amount) {
			t.Fatalf("unexpected refund: %+v", found)
		}
	})

	t.Run("should report unknown refunds and transactions", func(t *testing.T) {
		setup(t)
		if _, err := repo.FindByID(ctx, nil, 999); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := repo.UpdateStatus(ctx, nil, 999, model.RefundStatusFailed, "FAILED"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		err := repo.Create(ctx, nil, &model.Refund{TransactionID: 999, MerchantTransactionID: "x", Amount: decimal.NewFromInt(1), Status: model.RefundStatusRequested})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for dangling transaction, got %v", err)
		}
	})
}
