package sched

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"phonepe-relay/internal/config"
	"phonepe-relay/internal/domain"
	"phonepe-relay/internal/domain/model"
	"phonepe-relay/internal/domain/ports/repository"
	"phonepe-relay/internal/infra/metrics"
	"phonepe-relay/internal/infra/redis"
)

const reconcilerLockKey = "lock:payment-reconciler"

type validator interface {
	Validate(ctx context.Context, merchantTransactionID string) (json.RawMessage, error)
}

// PaymentReconciler periodically re-validates INITIATED/PENDING transactions
// that are older than staleAfter. This covers users who never came back to
// the validate endpoint and pay sessions whose status was left pending.
type PaymentReconciler struct {
	uc         validator
	txns       repository.TransactionRepository
	locker     redis.Locker
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	lockTTL    time.Duration
	log        *zerolog.Logger
	now        func() time.Time
}

func NewPaymentReconciler(uc validator, txns repository.TransactionRepository, locker redis.Locker, cfg config.ReconcilerConfig, log *zerolog.Logger) *PaymentReconciler {
	w := &PaymentReconciler{
		uc:         uc,
		txns:       txns,
		locker:     locker,
		interval:   cfg.Interval,
		staleAfter: cfg.StaleAfter,
		batchSize:  cfg.BatchSize,
		lockTTL:    cfg.LockTTL,
		log:        log,
		now:        time.Now,
	}
	if w.interval <= 0 {
		w.interval = time.Minute
	}
	if w.staleAfter <= 0 {
		w.staleAfter = 10 * time.Minute
	}
	if w.batchSize <= 0 {
		w.batchSize = 200
	}
	if w.lockTTL <= 0 {
		w.lockTTL = config.DefaultLockTTL(w.interval)
	}
	if w.locker == nil {
		w.locker = redis.NoopLocker{}
	}
	return w
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Dur("stale_after", w.staleAfter).Msg("payment reconciler started")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("payment reconciler stopping")
			return
		case <-t.C:
			if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, redis.ErrLockNotAcquired) {
				w.log.Error().Err(err).Msg("payment reconciler tick failed")
			}
		}
	}
}

// RunOnce performs a single reconciliation pass and returns how many
// transactions were checked. Only one replica runs a pass at a time, and a
// pass ends before its lock can expire.
func (w *PaymentReconciler) RunOnce(ctx context.Context) (int, error) {
	started := w.now()
	token, err := w.locker.TryLock(ctx, reconcilerLockKey, w.lockTTL)
	if err != nil {
		if errors.Is(err, redis.ErrLockNotAcquired) {
			w.log.Debug().Msg("payment reconciler: another replica holds the lock")
		}
		return 0, err
	}
	defer func() {
		if err := w.locker.Unlock(context.Background(), reconcilerLockKey, token); err != nil {
			w.log.Warn().Err(err).Msg("payment reconciler: unlock failed")
		}
	}()

	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.txns.ListStale(ctx, nil,
		[]model.TransactionStatus{model.TransactionStatusInitiated, model.TransactionStatusPending},
		cutoff, w.batchSize)
	if err != nil {
		return 0, err
	}

	// stop while the lock is still ours; leftovers are picked up next tick
	deadline := started.Add(w.lockTTL - w.lockTTL/10)
	checked := 0
	for _, t := range stale {
		if ctx.Err() != nil {
			return checked, ctx.Err()
		}
		if !w.now().Before(deadline) {
			w.log.Warn().Int("checked", checked).Int("remaining", len(stale)-checked).
				Msg("payment reconciler: lock about to expire; ending pass early")
			break
		}
		checked++
		_, err := w.uc.Validate(ctx, t.MerchantTransactionID)
		switch {
		case err == nil:
			metrics.IncReconciled("ok")
			w.log.Info().Str("merchant_transaction_id", t.MerchantTransactionID).Msg("payment reconciler: transaction settled")
		case errors.Is(err, domain.ErrPaymentNotSuccessful):
			metrics.IncReconciled("not_successful")
		default:
			metrics.IncReconciled("error")
			w.log.Warn().Err(err).Str("merchant_transaction_id", t.MerchantTransactionID).Msg("payment reconciler: validate failed")
		}
	}
	return checked, nil
}
