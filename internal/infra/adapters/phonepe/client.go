package phonepe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"phonepe-relay/internal/domain"
	"phonepe-relay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// maxBodyBytes caps how much of a provider reply is read into memory.
const maxBodyBytes = 1 << 20

// Request is a single outbound call. Endpoint is a short label used in logs
// and metrics ("pay", "status", ...).
type Request struct {
	Endpoint string
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
}

type Response struct {
	StatusCode int
	Body       []byte
}

// StatusError reports a non-2xx reply. It unwraps to domain.ErrUpstream.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider responded %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error { return domain.ErrUpstream }

// Client is an HTTP client that backs off on 429 responses.
type Client struct {
	http  *http.Client
	log   *zerolog.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(hc *http.Client, log *zerolog.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{http: hc, log: log, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do sends req. A 429 is retried after delay while maxRetries > 0, doubling
// the delay and spending one retry each time. Any other failure is returned
// immediately. All failures wrap domain.ErrUpstream.
func (c *Client) Do(ctx context.Context, req Request, maxRetries int, delay time.Duration) (*Response, error) {
	for {
		resp, err := c.once(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		serr := &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
		if resp.StatusCode != http.StatusTooManyRequests || maxRetries <= 0 {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.Endpoint, serr)
		}

		c.log.Warn().
			Str("endpoint", req.Endpoint).
			Int("retries_left", maxRetries).
			Dur("delay", delay).
			Msg("provider rate limited; backing off")
		metrics.IncGatewayRetry(req.Endpoint)

		if err := c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrUpstream, req.Method, req.Endpoint, err)
		}
		maxRetries--
		delay *= 2
	}
}

func (c *Client) once(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrUpstream, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.ObserveGatewayCall(req.Endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrUpstream, req.Method, req.Endpoint, err)
	}
	defer resp.Body.Close()
	metrics.ObserveGatewayCall(req.Endpoint, resp.StatusCode, time.Since(start))

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %w", domain.ErrUpstream, req.Endpoint, err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: b}, nil
}
