package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once       sync.Once
	collectors []prometheus.Collector
)

// register queues collectors from each file's init; nothing is exported
// until MustRegister runs.
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister exports every queued collector to the default registry,
// which is what /metrics serves. Later calls are no-ops.
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(collectors...)
	})
}

// norm keeps label values stable regardless of caller casing.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
