//go:build !integration

package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"phonepe-relay/internal/domain/model"
	"phonepe-relay/internal/infra/logging"
	"phonepe-relay/internal/usecase"
)

func TestAuditUseCase_Record(t *testing.T) {
	repo := &memAuditRepo{}
	q := &inlineQueue{}
	a := usecase.NewAuditUseCase(repo, q, newTestLogger())

	ctx := logging.WithTraceID(context.Background(), "trace-1")
	a.Record(ctx, model.AuditPaymentInitiated, "Transaction ID: MT1, Amount: 100", json.RawMessage(`{"code":"PAYMENT_INITIATED"}`))

	got := repo.byAction(model.AuditPaymentInitiated)
	if len(got) != 1 {
		t.Fatalf("expected one entry, got %d", len(got))
	}
	if got[0].TraceID != "trace-1" || got[0].Timestamp.IsZero() || string(got[0].Metadata) != `{"code":"PAYMENT_INITIATED"}` {
		t.Errorf("unexpected entry %+v", got[0])
	}

	a.Close()
	if !q.stopped {
		t.Error("Close did not stop the queue")
	}
}

func TestAuditUseCase_FailuresAreSwallowed(t *testing.T) {
	repo := &memAuditRepo{appendErr: errors.New("audit db down")}
	a := usecase.NewAuditUseCase(repo, &inlineQueue{}, newTestLogger())
	a.Record(context.Background(), model.AuditRefundRequested, "x", nil)

	full := &inlineQueue{full: true}
	b := usecase.NewAuditUseCase(&memAuditRepo{}, full, newTestLogger())
	b.Record(context.Background(), model.AuditRefundRequested, "x", nil)
}
