package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		transactionsTotal,
		refundsTotal,
		reconciledTotal,
	)
}

var (
	transactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactions_total",
			Help: "Transaction state transitions by resulting status.",
		},
		[]string{"status"},
	)

	refundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refunds_total",
			Help: "Refund state transitions by resulting status.",
		},
		[]string{"status"},
	)

	// result: ok|not_successful|error
	reconciledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_transactions_total",
			Help: "Transactions re-validated by the reconciler, by result.",
		},
		[]string{"result"},
	)
)

func IncTransaction(status string) {
	transactionsTotal.WithLabelValues(norm(status)).Inc()
}

func IncRefund(status string) {
	refundsTotal.WithLabelValues(norm(status)).Inc()
}

func IncReconciled(result string) {
	reconciledTotal.WithLabelValues(norm(result)).Inc()
}
