package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	SkipReasonUnavailable = "unavailable"
	SkipReasonStore       = "store"
)

// PromMetrics is the Prometheus side of the observability sink. All methods
// are no-ops on a nil receiver so components can run without metrics.
type PromMetrics struct {
	samplesRecorded prometheus.Counter
	ticksSkipped    *prometheus.CounterVec
	lastUsage       prometheus.Gauge
	invalidRanges   *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
}

func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	recorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cpumonitor_samples_recorded_total",
		Help: "Total CPU usage samples appended to the store.",
	})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cpumonitor_ticks_skipped_total",
		Help: "Sampler ticks that wrote nothing, by reason.",
	}, []string{"reason"})
	lastUsage := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cpumonitor_last_usage_percent",
		Help: "Most recently recorded CPU usage percentage.",
	})
	invalid := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cpumonitor_invalid_range_total",
		Help: "Queries rejected for an invalid time range, by granularity.",
	}, []string{"granularity"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cpumonitor_query_duration_seconds",
		Help:    "Query evaluation latency by granularity.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"granularity"})

	reg.MustRegister(recorded, skipped, lastUsage, invalid, duration)

	return &PromMetrics{
		samplesRecorded: recorded,
		ticksSkipped:    skipped,
		lastUsage:       lastUsage,
		invalidRanges:   invalid,
		queryDuration:   duration,
	}
}

func (p *PromMetrics) SampleRecorded(usage float64) {
	if p == nil {
		return
	}
	p.samplesRecorded.Inc()
	p.lastUsage.Set(usage)
}

func (p *PromMetrics) TickSkipped(reason string) {
	if p == nil {
		return
	}
	p.ticksSkipped.WithLabelValues(reason).Inc()
}

func (p *PromMetrics) InvalidRange(granularity string) {
	if p == nil {
		return
	}
	p.invalidRanges.WithLabelValues(granularity).Inc()
}

func (p *PromMetrics) ObserveQuery(granularity string, seconds float64) {
	if p == nil {
		return
	}
	p.queryDuration.WithLabelValues(granularity).Observe(seconds)
}
