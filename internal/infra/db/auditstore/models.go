package auditstore

import (
	"time"

	"gorm.io/datatypes"
)

type auditRecord struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	Action    string         `gorm:"size:64;not null;index"`
	Details   string         `gorm:"type:text;not null"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	TraceID   string         `gorm:"size:64"`
	Timestamp time.Time      `gorm:"not null;index"`
}

func (auditRecord) TableName() string { return "audit_logs" }
