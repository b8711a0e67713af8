package adapter

import (
	"context"
	"encoding/json"
)

// PayRequest carries the caller-controlled parts of a pay payload.
type PayRequest struct {
	MerchantTransactionID string
	MerchantUserID        string
	AmountMinor           int64 // paise
	RedirectURL           string
}

type RefundRequest struct {
	MerchantTransactionID string
	AmountMinor           int64 // paise
	Reason                string
}

// ProviderResponse is the decoded envelope of a provider reply. Raw keeps the
// exact body so it can be passed through to the caller and the audit trail.
type ProviderResponse struct {
	Code        string // top-level "code", e.g. PAYMENT_SUCCESS
	RedirectURL string // data.instrumentResponse.redirectInfo.url (pay only)
	State       string // data.state, when present
	Raw         json.RawMessage
}

// PaymentGateway is the port for the hosted payment page provider.
type PaymentGateway interface {
	Name() string

	// Pay creates a payment session; RedirectURL is set on success.
	Pay(ctx context.Context, req PayRequest) (*ProviderResponse, error)
	// PaymentStatus checks the status of a merchant transaction.
	PaymentStatus(ctx context.Context, merchantTransactionID string) (*ProviderResponse, error)
	// Refund asks the provider to refund (part of) a transaction.
	Refund(ctx context.Context, req RefundRequest) (*ProviderResponse, error)
	// RefundStatus checks a previously requested refund.
	RefundStatus(ctx context.Context, refundID string) (*ProviderResponse, error)
}
