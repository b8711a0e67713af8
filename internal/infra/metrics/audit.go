package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(auditAppendsTotal) }

// result: ok|error|dropped
var auditAppendsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "audit_appends_total",
		Help: "Audit log appends by result.",
	},
	[]string{"result"},
)

func IncAudit(result string) {
	auditAppendsTotal.WithLabelValues(norm(result)).Inc()
}
