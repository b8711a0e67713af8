// File: internal/usecase/transaction_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"phonepe-relay/internal/domain"
	"phonepe-relay/internal/domain/model"
	"phonepe-relay/internal/domain/ports/adapter"
	"phonepe-relay/internal/domain/ports/repository"
	"phonepe-relay/internal/domain/ports/usecase"
	"phonepe-relay/internal/infra/logging"
	"phonepe-relay/internal/infra/metrics"
)

var _ usecase.TransactionManager = (*TransactionUseCase)(nil)

const defaultUserID = "SYSTEM"

type TransactionUseCase struct {
	txns       repository.TransactionRepository
	gateway    adapter.PaymentGateway
	audit      usecase.AuditRecorder
	events     adapter.EventPublisher
	ids        IDGenerator
	appBaseURL string
	log        *zerolog.Logger
}

func NewTransactionUseCase(
	txns repository.TransactionRepository,
	gateway adapter.PaymentGateway,
	audit usecase.AuditRecorder,
	events adapter.EventPublisher,
	ids IDGenerator,
	appBaseURL string,
	log *zerolog.Logger,
) *TransactionUseCase {
	return &TransactionUseCase{
		txns:       txns,
		gateway:    gateway,
		audit:      audit,
		events:     events,
		ids:        ids,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		log:        log,
	}
}

func (u *TransactionUseCase) Initiate(ctx context.Context, userID, amount string) (*model.Transaction, string, error) {
	defer logging.TraceDuration(u.log, "TransactionUseCase.Initiate")()

	amt, err := parseAmount(amount)
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(userID) == "" {
		userID = defaultUserID
	}

	id := u.ids.NewMerchantTransactionID()
	ctx = logging.WithMerchantTransactionID(ctx, id)
	log := logging.With(ctx, u.log)

	resp, err := u.gateway.Pay(ctx, adapter.PayRequest{
		MerchantTransactionID: id,
		MerchantUserID:        userID,
		AmountMinor:           model.MinorUnits(amt),
		RedirectURL:           fmt.Sprintf("%s?txn_id=%s", u.appBaseURL, id),
	})
	if err != nil {
		log.Error().Err(err).Msg("pay request failed")
		return nil, "", err
	}
	if resp.RedirectURL == "" {
		log.Error().Str("code", resp.Code).Msg("pay response carries no redirect url")
		return nil, "", fmt.Errorf("%w: pay response without redirect url (code %q)", domain.ErrUpstream, resp.Code)
	}

	txn := &model.Transaction{
		MerchantTransactionID: id,
		UserID:                userID,
		Amount:                amt,
		Status:                model.TransactionStatusInitiated,
	}
	if err := u.txns.Create(ctx, nil, txn); err != nil {
		// the provider session exists but we have no row for it
		log.Error().Err(err).Msg("persist initiated transaction failed")
		return nil, "", fmt.Errorf("%w: create transaction: %w", domain.ErrPersistence, err)
	}
	metrics.IncTransaction(string(txn.Status))
	log.Info().Str("user_id", userID).Str("amount", amt.String()).Msg("payment initiated")

	u.audit.Record(ctx, model.AuditPaymentInitiated,
		fmt.Sprintf("Transaction ID: %s, Amount: %s", id, amt.String()), resp.Raw)
	publish(ctx, u.events, log, adapter.PaymentEvent{
		Type:                  adapter.EventPaymentStatusChanged,
		MerchantTransactionID: id,
		Status:                string(txn.Status),
		Amount:                amt.String(),
	})
	return txn, resp.RedirectURL, nil
}

// Validate stores whatever the provider reports. The provider is the source
// of truth, so a repeated call simply overwrites the previous status.
func (u *TransactionUseCase) Validate(ctx context.Context, merchantTransactionID string) (json.RawMessage, error) {
	defer logging.TraceDuration(u.log, "TransactionUseCase.Validate")()

	if strings.TrimSpace(merchantTransactionID) == "" {
		return nil, fmt.Errorf("%w: merchant transaction id is required", domain.ErrInvalidArgument)
	}
	ctx = logging.WithMerchantTransactionID(ctx, merchantTransactionID)
	log := logging.With(ctx, u.log)

	resp, err := u.gateway.PaymentStatus(ctx, merchantTransactionID)
	if err != nil {
		log.Error().Err(err).Msg("status request failed")
		return nil, err
	}

	status := model.TransactionStatusFromCode(resp.Code)
	if err := u.txns.UpdateStatus(ctx, nil, merchantTransactionID, status); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Str("status", string(status)).Msg("persist transaction status failed")
			return nil, fmt.Errorf("%w: update transaction: %w", domain.ErrPersistence, err)
		}
		log.Warn().Msg("status checked for a transaction with no local row")
	}
	metrics.IncTransaction(string(status))
	log.Info().Str("code", resp.Code).Str("status", string(status)).Msg("payment status updated")

	u.audit.Record(ctx, model.AuditPaymentStatusUpdated,
		fmt.Sprintf("Transaction ID: %s, Status: %s", merchantTransactionID, status), resp.Raw)
	publish(ctx, u.events, log, adapter.PaymentEvent{
		Type:                  adapter.EventPaymentStatusChanged,
		MerchantTransactionID: merchantTransactionID,
		Status:                string(status),
	})

	if status != model.TransactionStatusSuccess {
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentNotSuccessful, status)
	}
	return resp.Raw, nil
}

func (u *TransactionUseCase) MarkRefunded(ctx context.Context, tx repository.Tx, merchantTransactionID string) error {
	if err := u.txns.UpdateStatus(ctx, tx, merchantTransactionID, model.TransactionStatusRefunded); err != nil {
		return fmt.Errorf("mark transaction refunded: %w", err)
	}
	metrics.IncTransaction(string(model.TransactionStatusRefunded))
	return nil
}
