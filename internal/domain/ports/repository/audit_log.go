package repository

import (
	"context"

	"phonepe-relay/internal/domain/model"
)

// AuditLogRepository is insert-only and backed by its own database.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *model.AuditLog) error
}
