// File: internal/usecase/audit_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"phonepe-relay/internal/domain/model"
	"phonepe-relay/internal/domain/ports/repository"
	"phonepe-relay/internal/domain/ports/usecase"
	"phonepe-relay/internal/infra/logging"
	"phonepe-relay/internal/infra/metrics"
)

var _ usecase.AuditRecorder = (*AuditUseCase)(nil)

// TaskQueue runs work in the background. worker.Pool satisfies it.
type TaskQueue interface {
	Submit(task func(ctx context.Context) error) error
	Stop()
}

// AuditUseCase records audit entries asynchronously. Audit failures never
// reach the payment caller; they are logged and counted.
type AuditUseCase struct {
	repo  repository.AuditLogRepository
	queue TaskQueue
	log   *zerolog.Logger
	now   func() time.Time
}

func NewAuditUseCase(repo repository.AuditLogRepository, queue TaskQueue, log *zerolog.Logger) *AuditUseCase {
	return &AuditUseCase{repo: repo, queue: queue, log: log, now: time.Now}
}

func (a *AuditUseCase) Record(ctx context.Context, action, details string, metadata json.RawMessage) {
	entry := &model.AuditLog{
		Action:    action,
		Details:   details,
		Metadata:  metadata,
		TraceID:   logging.TraceID(ctx),
		Timestamp: a.now().UTC(),
	}
	log := logging.With(ctx, a.log)

	err := a.queue.Submit(func(ctx context.Context) error {
		if err := a.repo.Append(ctx, entry); err != nil {
			metrics.IncAudit("error")
			log.Error().Err(err).Str("action", action).Msg("audit append failed")
			return nil
		}
		metrics.IncAudit("ok")
		return nil
	})
	if err != nil {
		metrics.IncAudit("dropped")
		log.Warn().Err(err).Str("action", action).Str("details", details).Msg("audit entry dropped")
	}
}

// Close waits for queued entries to be written.
func (a *AuditUseCase) Close() { a.queue.Stop() }
