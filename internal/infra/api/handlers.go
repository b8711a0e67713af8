package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"phonepe-relay/internal/domain"
	"phonepe-relay/internal/domain/ports/usecase"
	"phonepe-relay/internal/infra/logging"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	msgBanner          = "PhonePe Integration APIs!"
	msgInternal        = "Internal Server Error"
	msgInvalidAmount   = "Invalid amount"
	msgMissingTxnID    = "Missing transaction ID"
	msgMissingRefundIn = "Missing transaction ID or amount"
	msgMissingRefundID = "Missing refund ID"
	msgPaymentFailed   = "Payment failed or pending"
	msgTxnNotFound     = "Transaction not found"
	msgRefundNotFound  = "Refund not found"

	headerRefundID = "X-Refund-ID"

	maxBodyBytes = 64 << 10
)

// Handlers adapts the payment and refund managers to HTTP.
type Handlers struct {
	txns    usecase.TransactionManager
	refunds usecase.RefundManager
	log     *zerolog.Logger
}

func NewHandlers(txns usecase.TransactionManager, refunds usecase.RefundManager, log *zerolog.Logger) *Handlers {
	return &Handlers{txns: txns, refunds: refunds, log: log}
}

func (h *Handlers) Banner(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, msgBanner)
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "OK")
}

// Pay opens a payment session and redirects the user to the provider page.
func (h *Handlers) Pay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txn, redirectURL, err := h.txns.Initiate(r.Context(), q.Get("user"), q.Get("amount"))
	if err != nil {
		h.fail(w, r, "pay", err, failure{
			invalid:  msgInvalidAmount,
			upstream: "Error initiating payment",
		})
		return
	}

	l := logging.With(r.Context(), h.log)
	l.Info().Str("merchant_transaction_id", txn.MerchantTransactionID).Msg("redirecting to provider")
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (h *Handlers) ValidatePayment(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "merchantTransactionId"))
	if id == "" {
		writeText(w, http.StatusBadRequest, msgMissingTxnID)
		return
	}

	ctx := logging.WithMerchantTransactionID(r.Context(), id)
	payload, err := h.txns.Validate(ctx, id)
	if err != nil {
		h.fail(w, r.WithContext(ctx), "validate", err, failure{
			invalid:  msgMissingTxnID,
			upstream: "Error fetching payment status",
		})
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handlers) Refund(w http.ResponseWriter, r *http.Request) {
	in, err := decodeRefundRequest(w, r)
	if err != nil {
		l := logging.With(r.Context(), h.log)
		l.Debug().Err(err).Msg("refund body rejected")
		writeText(w, http.StatusBadRequest, msgMissingRefundIn)
		return
	}
	if in.MerchantTransactionID == "" || in.Amount == "" {
		writeText(w, http.StatusBadRequest, msgMissingRefundIn)
		return
	}

	ctx := logging.WithMerchantTransactionID(r.Context(), in.MerchantTransactionID)
	rf, payload, err := h.refunds.Request(ctx, in.MerchantTransactionID, string(in.Amount))
	if err != nil {
		h.fail(w, r.WithContext(ctx), "refund", err, failure{
			invalid:  msgInvalidAmount,
			notFound: msgTxnNotFound,
			upstream: "Error initiating refund",
		})
		return
	}
	w.Header().Set(headerRefundID, strconv.FormatInt(rf.ID, 10))
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handlers) RefundStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "refundId"))
	if id == "" {
		writeText(w, http.StatusBadRequest, msgMissingRefundID)
		return
	}

	rf, payload, err := h.refunds.CheckStatus(r.Context(), id)
	if err != nil {
		h.fail(w, r, "refund_status", err, failure{
			invalid:  msgMissingRefundID,
			notFound: msgRefundNotFound,
			upstream: "Error fetching refund status",
		})
		return
	}
	w.Header().Set(headerRefundID, strconv.FormatInt(rf.ID, 10))
	writeJSON(w, http.StatusOK, payload)
}

// MissingParam answers the bare forms of the parameterised routes.
func MissingParam(msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusBadRequest, msg)
	}
}

// failure holds the client-facing message per error class of one route.
// Empty fields fall back to the generic message.
type failure struct {
	invalid  string
	notFound string
	upstream string
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error, f failure) {
	l := logging.With(r.Context(), h.log)

	switch {
	case errors.Is(err, domain.ErrPaymentNotSuccessful):
		l.Info().Err(err).Str("op", op).Msg("payment not successful")
		writeText(w, http.StatusBadRequest, msgPaymentFailed)
	case errors.Is(err, domain.ErrInvalidArgument):
		l.Info().Err(err).Str("op", op).Msg("invalid request")
		writeText(w, http.StatusBadRequest, orDefault(f.invalid, http.StatusText(http.StatusBadRequest)))
	case errors.Is(err, domain.ErrNotFound):
		l.Info().Err(err).Str("op", op).Msg("not found")
		writeText(w, http.StatusNotFound, orDefault(f.notFound, http.StatusText(http.StatusNotFound)))
	case errors.Is(err, domain.ErrUpstream):
		l.Error().Err(err).Str("op", op).Msg("provider call failed")
		writeText(w, http.StatusInternalServerError, orDefault(f.upstream, msgInternal))
	default:
		l.Error().Err(err).Str("op", op).Msg("request failed")
		writeText(w, http.StatusInternalServerError, msgInternal)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// writeJSON relays a provider payload untouched.
func writeJSON(w http.ResponseWriter, status int, payload json.RawMessage) {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

type refundRequest struct {
	MerchantTransactionID string     `json:"merchantTransactionId"`
	Amount                flexString `json:"amount"`
}

// flexString accepts both "100.50" and 100.50.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// decodeRefundRequest reads a JSON or form-encoded refund body.
func decodeRefundRequest(w http.ResponseWriter, r *http.Request) (refundRequest, error) {
	var in refundRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return in, err
		}
		in.MerchantTransactionID = strings.TrimSpace(r.PostForm.Get("merchantTransactionId"))
		in.Amount = flexString(strings.TrimSpace(r.PostForm.Get("amount")))
		return in, nil
	default:
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&in); err != nil {
			return in, err
		}
		in.MerchantTransactionID = strings.TrimSpace(in.MerchantTransactionID)
		return in, nil
	}
}
