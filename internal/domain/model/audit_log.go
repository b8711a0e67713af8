package model

import (
	"encoding/json"
	"time"
)

// Audit actions, one per externally observable step.
const (
	AuditPaymentInitiated     = "Payment Initiated"
	AuditPaymentStatusUpdated = "Payment Status Updated"
	AuditRefundRequested      = "Refund Requested"
	AuditRefundStatusUpdated  = "Refund Status Updated"
)

// AuditLog is an append-only record. It is never updated or deleted.
type AuditLog struct {
	ID        int64
	Action    string
	Details   string
	Metadata  json.RawMessage // provider payload or response
	TraceID   string
	Timestamp time.Time
}
