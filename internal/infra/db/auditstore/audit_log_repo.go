package auditstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"phonepe-relay/internal/domain"
	"phonepe-relay/internal/domain/model"
	"phonepe-relay/internal/domain/ports/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

type AuditLogRepo struct {
	DB *gorm.DB
}

func NewAuditLogRepo(db *gorm.DB) *AuditLogRepo {
	return &AuditLogRepo{DB: db}
}

// Append inserts entry and sets its ID. A zero Timestamp is stamped with now.
func (r *AuditLogRepo) Append(ctx context.Context, entry *model.AuditLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	rec := auditRecord{
		Action:    entry.Action,
		Details:   entry.Details,
		Metadata:  datatypes.JSON(entry.Metadata),
		TraceID:   entry.TraceID,
		Timestamp: entry.Timestamp,
	}
	if err := r.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("%w: append audit log: %w", domain.ErrPersistence, err)
	}
	entry.ID = rec.ID
	return nil
}
