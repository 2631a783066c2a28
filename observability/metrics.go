package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RouterMetrics bundles collectors tracking router operation health.
type RouterMetrics struct {
	operations   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	swapFailures *prometheus.CounterVec
}

var (
	routerMetricsOnce sync.Once
	routerRegistry    *RouterMetrics
)

// Router returns the lazily-initialised metrics registry for router
// operations.
func Router() *RouterMetrics {
	routerMetricsOnce.Do(func() {
		routerRegistry = &RouterMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "altair",
				Subsystem: "router",
				Name:      "operations_total",
				Help:      "Count of router operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "altair",
				Subsystem: "router",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for router operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			swapFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "altair",
				Subsystem: "router",
				Name:      "swap_failures_total",
				Help:      "Count of aggregator swap failures segmented by aggregator.",
			}, []string{"aggregator"}),
		}
		prometheus.MustRegister(
			routerRegistry.operations,
			routerRegistry.latency,
			routerRegistry.swapFailures,
		)
	})
	return routerRegistry
}

// Observe records the outcome and latency of a router operation.
func (m *RouterMetrics) Observe(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordSwapFailure increments the swap failure counter for an aggregator.
func (m *RouterMetrics) RecordSwapFailure(aggregator string) {
	if m == nil {
		return
	}
	label := strings.TrimSpace(aggregator)
	if label == "" {
		label = "unknown"
	}
	m.swapFailures.WithLabelValues(label).Inc()
}
