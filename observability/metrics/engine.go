package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EngineMetrics tracks the staking and reward engine.
type EngineMetrics struct {
	operations  *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	minted      prometheus.Gauge
	staked      prometheus.Counter
	withdrawn   prometheus.Counter
	subscribers prometheus.Gauge

	// mirrored onto the global meter provider for OTLP export
	otelOps     metric.Int64Counter
	otelLatency metric.Float64Histogram
}

var (
	engineOnce     sync.Once
	engineRegistry *EngineMetrics
)

// Engine returns the process-wide engine metrics, registering them on first
// use.
func Engine() *EngineMetrics {
	engineOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "casechain_engine_operations_total",
				Help: "Count of engine transactions by operation and outcome.",
			}, []string{"operation", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "casechain_engine_operation_seconds",
				Help:    "Latency of engine transactions including commit.",
				Buckets: prometheus.DefBuckets,
			}, []string{"operation"}),
			minted: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "casechain_minted_tokens",
				Help: "Aggregate CASE base units minted as interest, commissions and rank rewards.",
			}),
			staked: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "casechain_staked_base_units_total",
				Help: "Principal escrowed by new stakes, in base units.",
			}),
			withdrawn: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "casechain_withdrawn_base_units_total",
				Help: "Principal plus interest released by withdrawals, in base units.",
			}),
			subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "casechain_event_subscribers",
				Help: "Live event stream subscribers.",
			}),
		}
		meter := otel.Meter("casechain/engine")
		engineRegistry.otelOps, _ = meter.Int64Counter("casechain.engine.operations",
			metric.WithDescription("Engine transactions by operation and outcome."))
		engineRegistry.otelLatency, _ = meter.Float64Histogram("casechain.engine.operation.duration",
			metric.WithDescription("Latency of engine transactions including commit."),
			metric.WithUnit("s"))
		prometheus.MustRegister(
			engineRegistry.operations,
			engineRegistry.latency,
			engineRegistry.minted,
			engineRegistry.staked,
			engineRegistry.withdrawn,
			engineRegistry.subscribers,
		)
	})
	return engineRegistry
}

// ObserveOperation records the outcome ("ok", "rejected" or "error") and
// latency of one transaction.
func (m *EngineMetrics) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(elapsed.Seconds())
	if m.otelOps != nil {
		m.otelOps.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("outcome", outcome)))
	}
	if m.otelLatency != nil {
		m.otelLatency.Record(context.Background(), elapsed.Seconds(),
			metric.WithAttributes(attribute.String("operation", operation)))
	}
}

// SetMinted publishes the aggregate mint counter.
func (m *EngineMetrics) SetMinted(value float64) {
	if m == nil {
		return
	}
	m.minted.Set(value)
}

func (m *EngineMetrics) AddStaked(value float64) {
	if m == nil || value <= 0 {
		return
	}
	m.staked.Add(value)
}

func (m *EngineMetrics) AddWithdrawn(value float64) {
	if m == nil || value <= 0 {
		return
	}
	m.withdrawn.Add(value)
}

// SetSubscribers publishes the number of live stream subscribers.
func (m *EngineMetrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}
