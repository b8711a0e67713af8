package phonepe

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
)

// Field order below is part of the wire contract: the provider recomputes
// the checksum over the exact bytes we encode.

type payInstrument struct {
	Type string `json:"type"`
}

type payPayload struct {
	MerchantID            string        `json:"merchantId"`
	MerchantTransactionID string        `json:"merchantTransactionId"`
	MerchantUserID        string        `json:"merchantUserId"`
	Amount                int64         `json:"amount"`
	RedirectURL           string        `json:"redirectUrl"`
	RedirectMode          string        `json:"redirectMode"`
	MobileNumber          string        `json:"mobileNumber"`
	PaymentInstrument     payInstrument `json:"paymentInstrument"`
}

type refundPayload struct {
	MerchantID            string `json:"merchantId"`
	MerchantTransactionID string `json:"merchantTransactionId"`
	Amount                int64  `json:"amount"`
	Reason                string `json:"reason"`
}

type envelope struct {
	Request string `json:"request"`
}

// encodePayload returns the base64 of the compact JSON encoding of v.
func encodePayload(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	raw := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return base64.StdEncoding.EncodeToString(raw), nil
}

func wrapRequest(b64 string) ([]byte, error) {
	return json.Marshal(envelope{Request: b64})
}
