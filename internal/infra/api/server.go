package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"phonepe-relay/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RateLimiting selects the limiter guarding the payment routes. A nil
// Limiter disables limiting.
type RateLimiting struct {
	Limiter Limiter
	Backend string // "redis" | "memory"
}

// NewRouter mounts the public surface. Ops routes (banner, health, metrics)
// are not rate limited.
func NewRouter(h *Handlers, cfg config.HTTPConfig, rl RateLimiting, logger *zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		TraceID(),
		RequestLog(logger),
		Recover(logger),
	)

	r.Get("/", h.Banner)
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if rl.Limiter != nil {
			r.Use(RateLimit(rl.Limiter, rl.Backend, logger))
		}
		r.Use(Timeout(cfg.RequestTimeout))

		r.Get("/pay", h.Pay)
		r.Get("/payment/validate", MissingParam(msgMissingTxnID))
		r.Get("/payment/validate/{merchantTransactionId}", h.ValidatePayment)
		r.Post("/refund", h.Refund)
		r.Get("/refund/status", MissingParam(msgMissingRefundID))
		r.Get("/refund/status/{refundId}", h.RefundStatus)
	})

	return r
}

// Server owns the listening http.Server.
type Server struct {
	srv *http.Server
	log *zerolog.Logger
}

func NewServer(cfg config.HTTPConfig, handler http.Handler, logger *zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		log: logger,
	}
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
