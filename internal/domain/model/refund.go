package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type RefundStatus string

const (
	RefundStatusRequested RefundStatus = "REQUESTED"
	RefundStatusProcessed RefundStatus = "PROCESSED"
	RefundStatusFailed    RefundStatus = "FAILED"
	RefundStatusUnknown   RefundStatus = "UNKNOWN" // provider value outside the mapping table
)

// Refund tracks one refund request against a transaction.
type Refund struct {
	ID                    int64
	TransactionID         int64
	MerchantTransactionID string
	Amount                decimal.Decimal
	Status                RefundStatus
	ProviderStatus        string // raw provider state from the last status check
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

var refundStatusByProvider = map[string]RefundStatus{
	"PAYMENT_SUCCESS":  RefundStatusProcessed,
	"COMPLETED":        RefundStatusProcessed,
	"SUCCESS":          RefundStatusProcessed,
	"PAYMENT_PENDING":  RefundStatusRequested,
	"PENDING":          RefundStatusRequested,
	"PAYMENT_ERROR":    RefundStatusFailed,
	"PAYMENT_DECLINED": RefundStatusFailed,
	"FAILED":           RefundStatusFailed,
	"TIMED_OUT":        RefundStatusFailed,
}

// RefundStatusFromProvider maps a provider refund state to the local enum.
// Unmapped values become UNKNOWN.
func RefundStatusFromProvider(s string) RefundStatus {
	if st, ok := refundStatusByProvider[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return st
	}
	return RefundStatusUnknown
}
