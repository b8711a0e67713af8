package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(limiterDecisionsTotal) }

var limiterDecisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rate_limiter_decisions_total",
		Help: "Rate limiter decisions by backend and result.",
	},
	[]string{"backend", "result"}, // backend="redis"|"memory", result="allow"|"deny"|"error"
)

func IncLimiterDecision(backend, result string) {
	limiterDecisionsTotal.WithLabelValues(norm(backend), norm(result)).Inc()
}
