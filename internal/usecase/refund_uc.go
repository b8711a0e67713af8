// File: internal/usecase/refund_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"phonepe-relay/internal/domain"
	"phonepe-relay/internal/domain/model"
	"phonepe-relay/internal/domain/ports/adapter"
	"phonepe-relay/internal/domain/ports/repository"
	"phonepe-relay/internal/domain/ports/usecase"
	"phonepe-relay/internal/infra/logging"
	"phonepe-relay/internal/infra/metrics"
)

var _ usecase.RefundManager = (*RefundUseCase)(nil)

const refundReason = "Refund request"

type refundedMarker interface {
	MarkRefunded(ctx context.Context, tx repository.Tx, merchantTransactionID string) error
}

type RefundUseCase struct {
	refunds repository.RefundRepository
	txns    repository.TransactionRepository
	marker  refundedMarker
	tm      repository.TransactionManager
	gateway adapter.PaymentGateway
	audit   usecase.AuditRecorder
	events  adapter.EventPublisher
	log     *zerolog.Logger
}

func NewRefundUseCase(
	refunds repository.RefundRepository,
	txns repository.TransactionRepository,
	marker refundedMarker,
	tm repository.TransactionManager,
	gateway adapter.PaymentGateway,
	audit usecase.AuditRecorder,
	events adapter.EventPublisher,
	log *zerolog.Logger,
) *RefundUseCase {
	return &RefundUseCase{
		refunds: refunds,
		txns:    txns,
		marker:  marker,
		tm:      tm,
		gateway: gateway,
		audit:   audit,
		events:  events,
		log:     log,
	}
}

// Request refunds amount (major units) of a stored transaction.
func (u *RefundUseCase) Request(ctx context.Context, merchantTransactionID, amount string) (*model.Refund, json.RawMessage, error) {
	defer logging.TraceDuration(u.log, "RefundUseCase.Request")()

	if strings.TrimSpace(merchantTransactionID) == "" || strings.TrimSpace(amount) == "" {
		return nil, nil, fmt.Errorf("%w: missing transaction id or amount", domain.ErrInvalidArgument)
	}
	amt, err := parseAmount(amount)
	if err != nil {
		return nil, nil, err
	}
	ctx = logging.WithMerchantTransactionID(ctx, merchantTransactionID)
	log := logging.With(ctx, u.log)

	txn, err := u.txns.FindByMerchantTransactionID(ctx, nil, merchantTransactionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("transaction %s: %w", merchantTransactionID, domain.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("%w: load transaction: %w", domain.ErrPersistence, err)
	}

	resp, err := u.gateway.Refund(ctx, adapter.RefundRequest{
		MerchantTransactionID: txn.MerchantTransactionID,
		AmountMinor:           model.MinorUnits(amt),
		Reason:                refundReason,
	})
	if err != nil {
		log.Error().Err(err).Msg("refund request failed")
		return nil, nil, err
	}

	rf := &model.Refund{
		TransactionID:         txn.ID,
		MerchantTransactionID: txn.MerchantTransactionID,
		Amount:                amt,
		Status:                model.RefundStatusRequested,
		ProviderStatus:        providerState(resp),
	}
	if err := u.refunds.Create(ctx, nil, rf); err != nil {
		log.Error().Err(err).Msg("persist refund failed")
		return nil, nil, fmt.Errorf("%w: create refund: %w", domain.ErrPersistence, err)
	}
	metrics.IncRefund(string(rf.Status))
	log.Info().Int64("refund_id", rf.ID).Str("amount", amt.String()).Msg("refund requested")

	u.audit.Record(ctx, model.AuditRefundRequested,
		fmt.Sprintf("Transaction ID: %s, Amount: %s", merchantTransactionID, amt.String()), resp.Raw)
	publish(ctx, u.events, log, adapter.PaymentEvent{
		Type:                  adapter.EventRefundStatusChanged,
		MerchantTransactionID: merchantTransactionID,
		RefundID:              rf.ID,
		Status:                string(rf.Status),
		Amount:                amt.String(),
	})
	return rf, resp.Raw, nil
}

// CheckStatus refreshes a refund from the provider. A processed refund also
// flips its transaction to REFUNDED in the same database transaction.
func (u *RefundUseCase) CheckStatus(ctx context.Context, refundID string) (*model.Refund, json.RawMessage, error) {
	defer logging.TraceDuration(u.log, "RefundUseCase.CheckStatus")()

	refundID = strings.TrimSpace(refundID)
	if refundID == "" {
		return nil, nil, fmt.Errorf("%w: refund id is required", domain.ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(refundID, 10, 64)
	if err != nil || id <= 0 {
		return nil, nil, fmt.Errorf("refund %q: %w", refundID, domain.ErrNotFound)
	}

	rf, err := u.refunds.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("refund %d: %w", id, domain.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("%w: load refund: %w", domain.ErrPersistence, err)
	}
	ctx = logging.WithMerchantTransactionID(ctx, rf.MerchantTransactionID)
	log := logging.With(ctx, u.log)

	resp, err := u.gateway.RefundStatus(ctx, strconv.FormatInt(rf.ID, 10))
	if err != nil {
		log.Error().Err(err).Int64("refund_id", rf.ID).Msg("refund status request failed")
		return nil, nil, err
	}

	raw := providerState(resp)
	status := model.RefundStatusFromProvider(raw)
	if status == model.RefundStatusUnknown {
		log.Warn().Str("provider_status", raw).Int64("refund_id", rf.ID).Msg("unmapped refund status")
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.refunds.UpdateStatus(ctx, tx, rf.ID, status, raw); err != nil {
			return err
		}
		if status == model.RefundStatusProcessed {
			return u.marker.MarkRefunded(ctx, tx, rf.MerchantTransactionID)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Int64("refund_id", rf.ID).Msg("persist refund status failed")
		return nil, nil, fmt.Errorf("%w: update refund: %w", domain.ErrPersistence, err)
	}
	rf.Status = status
	rf.ProviderStatus = raw
	metrics.IncRefund(string(status))
	log.Info().Int64("refund_id", rf.ID).Str("status", string(status)).Msg("refund status updated")

	u.audit.Record(ctx, model.AuditRefundStatusUpdated,
		fmt.Sprintf("Refund ID: %d, Status: %s", rf.ID, raw), resp.Raw)
	publish(ctx, u.events, log, adapter.PaymentEvent{
		Type:                  adapter.EventRefundStatusChanged,
		MerchantTransactionID: rf.MerchantTransactionID,
		RefundID:              rf.ID,
		Status:                string(status),
		Amount:                rf.Amount.String(),
	})
	return rf, resp.Raw, nil
}

// providerState is the refund state the provider reported, falling back to
// the response code when no state is present.
func providerState(resp *adapter.ProviderResponse) string {
	if resp.State != "" {
		return resp.State
	}
	return resp.Code
}
