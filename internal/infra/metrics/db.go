package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(dbPoolConns, dbPoolAcquireWait) }

var (
	dbPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_db_pool_connections",
			Help: "Transactions/refunds store connections by state.",
		},
		[]string{"state"}, // total|idle|in_use
	)

	dbPoolAcquireWait = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_db_pool_acquire_wait_seconds",
			Help: "Cumulative time spent waiting for a pooled connection.",
		},
	)
)

// PoolStat is the subset of pgxpool.Stat the gauges need.
type PoolStat interface {
	TotalConns() int32
	IdleConns() int32
	AcquiredConns() int32
	AcquireDuration() time.Duration
}

func SetDBPoolStats(s PoolStat) {
	dbPoolConns.WithLabelValues("total").Set(float64(s.TotalConns()))
	dbPoolConns.WithLabelValues("idle").Set(float64(s.IdleConns()))
	dbPoolConns.WithLabelValues("in_use").Set(float64(s.AcquiredConns()))
	dbPoolAcquireWait.Set(s.AcquireDuration().Seconds())
}
