package phonepe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"phonepe-relay/internal/config"
	"phonepe-relay/internal/domain"
	"phonepe-relay/internal/domain/ports/adapter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	method string
	path   string
	header http.Header
	body   []byte
}

func newTestGateway(t *testing.T, reply string, status int) (*Gateway, *capturedRequest) {
	t.Helper()
	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.header = r.Header.Clone()
		got.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	g, err := NewGateway(config.PhonePeConfig{
		HostURL:      srv.URL + "/apis/pg-sandbox",
		MerchantID:   testMerch,
		SaltKey:      testSaltKey,
		SaltIndex:    1,
		MobileNumber: "9999999999",
		MaxRetries:   new(int),
		InitialDelay: time.Millisecond,
		Timeout:      time.Second,
	}, newTestLogger())
	require.NoError(t, err)
	return g, got
}

func TestGateway_Pay(t *testing.T) {
	reply := `{"success":true,"code":"PAYMENT_INITIATED","data":{"merchantId":"PGTESTPAYUAT86","instrumentResponse":{"type":"PAY_PAGE","redirectInfo":{"url":"https://mercury-uat.phonepe.com/transact/abc","method":"GET"}}}}`
	g, got := newTestGateway(t, reply, http.StatusOK)

	res, err := g.Pay(context.Background(), adapter.PayRequest{
		MerchantTransactionID: testTxnID,
		MerchantUserID:        "MUID123",
		AmountMinor:           10000,
		RedirectURL:           "http://localhost:3000?txn_id=" + testTxnID,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/apis/pg-sandbox/pg/v1/pay", got.path)
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, "application/json", got.header.Get("Accept"))
	assert.Equal(t, "7cbd2e3801a9f995448450950a7f7f70baa7999744cacd298682cb77b87e1eb5###1", got.header.Get("X-VERIFY"))
	assert.Empty(t, got.header.Get("X-MERCHANT-ID"))

	var env map[string]string
	require.NoError(t, json.Unmarshal(got.body, &env))
	assert.Len(t, env, 1)
	assert.NotEmpty(t, env["request"])

	assert.Equal(t, "PAYMENT_INITIATED", res.Code)
	assert.Equal(t, "https://mercury-uat.phonepe.com/transact/abc", res.RedirectURL)
	assert.JSONEq(t, reply, string(res.Raw))
}

func TestGateway_PaymentStatus(t *testing.T) {
	reply := `{"success":true,"code":"PAYMENT_SUCCESS","data":{"merchantTransactionId":"MT7850590068188104","state":"COMPLETED","amount":10000}}`
	g, got := newTestGateway(t, reply, http.StatusOK)

	res, err := g.PaymentStatus(context.Background(), testTxnID)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/apis/pg-sandbox/pg/v1/status/PGTESTPAYUAT86/MT7850590068188104", got.path)
	assert.Equal(t, "d989fc94052bea50d2beb14be9d2eb5411978ac03c29099236a2f0600cf2d479###1", got.header.Get("X-VERIFY"))
	assert.Equal(t, testMerch, got.header.Get("X-MERCHANT-ID"))
	assert.Empty(t, got.body)

	assert.Equal(t, "PAYMENT_SUCCESS", res.Code)
	assert.Equal(t, "COMPLETED", res.State)
}

func TestGateway_Refund(t *testing.T) {
	g, got := newTestGateway(t, `{"success":true,"code":"PAYMENT_PENDING","data":{"state":"PENDING"}}`, http.StatusOK)

	res, err := g.Refund(context.Background(), adapter.RefundRequest{
		MerchantTransactionID: testTxnID,
		AmountMinor:           5000,
		Reason:                "Refund request",
	})
	require.NoError(t, err)

	assert.Equal(t, "/apis/pg-sandbox/pg/v1/refund", got.path)
	assert.Equal(t, "8d1ec8318295142dfe780ab6f0f5d927f195c2eb98246a2d5a58c38431bf1cba###1", got.header.Get("X-VERIFY"))
	assert.JSONEq(t, `{"request":"eyJtZXJjaGFudElkIjoiUEdURVNUUEFZVUFUODYiLCJtZXJjaGFudFRyYW5zYWN0aW9uSWQiOiJNVDc4NTA1OTAwNjgxODgxMDQiLCJhbW91bnQiOjUwMDAsInJlYXNvbiI6IlJlZnVuZCByZXF1ZXN0In0="}`, string(got.body))
	assert.Equal(t, "PENDING", res.State)
}

func TestGateway_RefundStatusFallsBackToTopLevelStatus(t *testing.T) {
	g, got := newTestGateway(t, `{"status":"COMPLETED"}`, http.StatusOK)

	res, err := g.RefundStatus(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "/apis/pg-sandbox/pg/v1/refund/PGTESTPAYUAT86/42", got.path)
	assert.Equal(t, testMerch, got.header.Get("X-MERCHANT-ID"))
	assert.Equal(t, NewSigner(testSaltKey, 1).SignPath("/pg/v1/refund/PGTESTPAYUAT86/42"), got.header.Get("X-VERIFY"))
	assert.Equal(t, "COMPLETED", res.State)
}

func TestGateway_Errors(t *testing.T) {
	t.Run("non-json reply", func(t *testing.T) {
		g, _ := newTestGateway(t, `<html>oops</html>`, http.StatusOK)
		_, err := g.PaymentStatus(context.Background(), testTxnID)
		assert.True(t, errors.Is(err, domain.ErrUpstream))
	})
	t.Run("bad request", func(t *testing.T) {
		g, _ := newTestGateway(t, `{"code":"BAD_REQUEST"}`, http.StatusBadRequest)
		_, err := g.Refund(context.Background(), adapter.RefundRequest{MerchantTransactionID: testTxnID, AmountMinor: 1})
		assert.True(t, errors.Is(err, domain.ErrUpstream))
	})
}

func TestNewGateway_Validation(t *testing.T) {
	_, err := NewGateway(config.PhonePeConfig{HostURL: "https://x"}, newTestLogger())
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	_, err = NewGateway(config.PhonePeConfig{MerchantID: "M", HostURL: "::bad"}, newTestLogger())
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}
