package phonepe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"phonepe-relay/internal/config"
	"phonepe-relay/internal/domain"
	"phonepe-relay/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

var _ adapter.PaymentGateway = (*Gateway)(nil)

const (
	pathPay    = "/pg/v1/pay"
	pathStatus = "/pg/v1/status"
	pathRefund = "/pg/v1/refund"

	redirectModeRedirect = "REDIRECT"
	instrumentPayPage    = "PAY_PAGE"
)

// Gateway implements adapter.PaymentGateway against the PhonePe PG v1 API.
type Gateway struct {
	host         string
	merchantID   string
	mobileNumber string
	maxRetries   int
	initialDelay time.Duration

	signer Signer
	client *Client
	log    *zerolog.Logger
}

func NewGateway(cfg config.PhonePeConfig, log *zerolog.Logger) (*Gateway, error) {
	if cfg.MerchantID == "" {
		return nil, fmt.Errorf("%w: merchant id empty", domain.ErrInvalidArgument)
	}
	if _, err := url.ParseRequestURI(cfg.HostURL); err != nil {
		return nil, fmt.Errorf("%w: invalid host url: %v", domain.ErrInvalidArgument, err)
	}
	hc := &http.Client{Timeout: cfg.Timeout}
	return &Gateway{
		host:         strings.TrimRight(cfg.HostURL, "/"),
		merchantID:   cfg.MerchantID,
		mobileNumber: cfg.MobileNumber,
		maxRetries:   cfg.Retries(),
		initialDelay: cfg.InitialDelay,
		signer:       NewSigner(cfg.SaltKey, cfg.SaltIndex),
		client:       NewClient(hc, log),
		log:          log,
	}, nil
}

func (g *Gateway) Name() string { return "phonepe" }

func (g *Gateway) Pay(ctx context.Context, req adapter.PayRequest) (*adapter.ProviderResponse, error) {
	b64, err := encodePayload(payPayload{
		MerchantID:            g.merchantID,
		MerchantTransactionID: req.MerchantTransactionID,
		MerchantUserID:        req.MerchantUserID,
		Amount:                req.AmountMinor,
		RedirectURL:           req.RedirectURL,
		RedirectMode:          redirectModeRedirect,
		MobileNumber:          g.mobileNumber,
		PaymentInstrument:     payInstrument{Type: instrumentPayPage},
	})
	if err != nil {
		return nil, fmt.Errorf("encode pay payload: %w", err)
	}
	return g.post(ctx, "pay", pathPay, b64)
}

func (g *Gateway) PaymentStatus(ctx context.Context, merchantTransactionID string) (*adapter.ProviderResponse, error) {
	path := pathStatus + "/" + g.merchantID + "/" + url.PathEscape(merchantTransactionID)
	return g.get(ctx, "status", path)
}

func (g *Gateway) Refund(ctx context.Context, req adapter.RefundRequest) (*adapter.ProviderResponse, error) {
	b64, err := encodePayload(refundPayload{
		MerchantID:            g.merchantID,
		MerchantTransactionID: req.MerchantTransactionID,
		Amount:                req.AmountMinor,
		Reason:                req.Reason,
	})
	if err != nil {
		return nil, fmt.Errorf("encode refund payload: %w", err)
	}
	return g.post(ctx, "refund", pathRefund, b64)
}

func (g *Gateway) RefundStatus(ctx context.Context, refundID string) (*adapter.ProviderResponse, error) {
	path := pathRefund + "/" + g.merchantID + "/" + url.PathEscape(refundID)
	return g.get(ctx, "refund_status", path)
}

func (g *Gateway) post(ctx context.Context, endpoint, path, b64 string) (*adapter.ProviderResponse, error) {
	body, err := wrapRequest(b64)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", endpoint, err)
	}
	h := g.headers(g.signer.Sign(b64, path))
	resp, err := g.client.Do(ctx, Request{
		Endpoint: endpoint,
		Method:   http.MethodPost,
		URL:      g.host + path,
		Header:   h,
		Body:     body,
	}, g.maxRetries, g.initialDelay)
	if err != nil {
		return nil, err
	}
	return parseResponse(endpoint, resp.Body)
}

func (g *Gateway) get(ctx context.Context, endpoint, path string) (*adapter.ProviderResponse, error) {
	h := g.headers(g.signer.SignPath(path))
	h.Set("X-MERCHANT-ID", g.merchantID)
	resp, err := g.client.Do(ctx, Request{
		Endpoint: endpoint,
		Method:   http.MethodGet,
		URL:      g.host + path,
		Header:   h,
	}, g.maxRetries, g.initialDelay)
	if err != nil {
		return nil, err
	}
	return parseResponse(endpoint, resp.Body)
}

func (g *Gateway) headers(checksum string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("accept", "application/json")
	h.Set("X-VERIFY", checksum)
	return h
}

// parseResponse probes the few fields the relay acts on and keeps the rest
// verbatim for pass-through.
func parseResponse(endpoint string, body []byte) (*adapter.ProviderResponse, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s: response is not JSON", domain.ErrUpstream, endpoint)
	}
	res := gjson.ParseBytes(body)
	state := res.Get("data.state").String()
	if state == "" {
		state = res.Get("status").String()
	}
	return &adapter.ProviderResponse{
		Code:        res.Get("code").String(),
		RedirectURL: res.Get("data.instrumentResponse.redirectInfo.url").String(),
		State:       state,
		Raw:         json.RawMessage(body),
	}, nil
}
