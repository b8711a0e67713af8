package api

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"phonepe-relay/internal/infra/logging"
	"phonepe-relay/internal/infra/metrics"
	"phonepe-relay/internal/infra/redis"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const msgTooManyRequests = "Too many requests from this IP, please try again later."

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// visitor holds the token bucket for one client and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a per-process token bucket per client. It is used when
// redis is not configured; limits are then per replica.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

// NewMemoryLimiter allows requests per window, refilled evenly over the window.
func NewMemoryLimiter(requests int, window time.Duration) *MemoryLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		every:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		idle:     window,
		now:      time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.every, m.burst)}
		m.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1), nil
}

// Cleanup drops visitors idle for longer than one window until ctx ends.
func (m *MemoryLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.sweep()
		}
	}
}

func (m *MemoryLimiter) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, v := range m.visitors {
		if now.Sub(v.lastSeen) > m.idle {
			delete(m.visitors, k)
		}
	}
}

func (m *MemoryLimiter) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visitors)
}

// RateLimit rejects clients over their budget with 429. Limiter errors fail open.
func RateLimit(l Limiter, backend string, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), redis.ClientKey(clientIP(r)))
			switch {
			case err != nil:
				metrics.IncLimiterDecision(backend, "error")
				lg := logging.With(r.Context(), logger)
				lg.Warn().Err(err).Str("backend", backend).Msg("rate limiter unavailable; allowing request")
			case !ok:
				metrics.IncLimiterDecision(backend, "deny")
				metrics.IncRateLimited()
				http.Error(w, msgTooManyRequests, http.StatusTooManyRequests)
				return
			default:
				metrics.IncLimiterDecision(backend, "allow")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. RealIP runs earlier in the chain,
// so forwarded addresses have already been applied.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
