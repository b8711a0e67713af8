package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusInitiated TransactionStatus = "INITIATED" // provider accepted the pay request
	TransactionStatusPending   TransactionStatus = "PENDING"   // provider reported PAYMENT_PENDING on validate
	TransactionStatusSuccess   TransactionStatus = "SUCCESS"   // provider reported PAYMENT_SUCCESS
	TransactionStatusFailed    TransactionStatus = "FAILED"    // any other provider code
	TransactionStatusRefunded  TransactionStatus = "REFUNDED"  // a refund against it was processed
)

// Provider response codes that drive the transaction state machine.
const (
	CodePaymentSuccess = "PAYMENT_SUCCESS"
	CodePaymentPending = "PAYMENT_PENDING"
)

// Transaction is one payment session, keyed by the merchant transaction id we
// hand to the provider.
type Transaction struct {
	ID                    int64
	MerchantTransactionID string          // unique, sent to the provider
	UserID                string          // caller's user identifier ("SYSTEM" when absent)
	Amount                decimal.Decimal // major units, as supplied by the caller
	Status                TransactionStatus
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// TransactionStatusFromCode maps a status-check response code to the local state.
func TransactionStatusFromCode(code string) TransactionStatus {
	switch code {
	case CodePaymentSuccess:
		return TransactionStatusSuccess
	case CodePaymentPending:
		return TransactionStatusPending
	default:
		return TransactionStatusFailed
	}
}

// Reconcilable reports whether the provider may still move the transaction.
func (s TransactionStatus) Reconcilable() bool {
	return s == TransactionStatusInitiated || s == TransactionStatusPending
}

// MinorUnits converts a major-unit amount to the integer minor units the
// provider expects (rupees -> paise), rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
