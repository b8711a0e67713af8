package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		gatewayCallsTotal,
		gatewayRetriesTotal,
		gatewayCallDuration,
	)
}

var (
	// status is the HTTP status code, or "error" for transport failures.
	gatewayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_calls_total",
			Help: "Outbound payment provider calls by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	gatewayRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_retries_total",
			Help: "Retries issued after a 429 from the payment provider.",
		},
		[]string{"endpoint"},
	)

	gatewayCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_call_duration_seconds",
			Help:    "Latency of a single outbound provider call.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)
)

func ObserveGatewayCall(endpoint string, status int, d time.Duration) {
	s := "error"
	if status > 0 {
		s = strconv.Itoa(status)
	}
	gatewayCallsTotal.WithLabelValues(norm(endpoint), s).Inc()
	gatewayCallDuration.WithLabelValues(norm(endpoint)).Observe(d.Seconds())
}

func IncGatewayRetry(endpoint string) {
	gatewayRetriesTotal.WithLabelValues(norm(endpoint)).Inc()
}
