package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
)

const namespace = "pantry_scan"

// Outcome labels for RequestsTotal.
const (
	OutcomeOK       = "ok"
	OutcomeSentinel = "sentinel"
	OutcomeFallback = "fallback"
	OutcomeInvalid  = "invalid"
	OutcomeConfig   = "config_error"
	OutcomeUpstream = "upstream_error"
)

// Recorder holds the service collectors. A nil *Recorder records nothing.
type Recorder struct {
	RequestsTotal        *prometheus.CounterVec
	FallbacksTotal       *prometheus.CounterVec
	PortionMismatchTotal prometheus.Counter
	UpstreamDuration     *prometheus.HistogramVec
}

// New builds the collectors and registers them, plus the build-info collector, on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Scan requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Model answers replaced by the placeholder result.",
		}, []string{"kind"}),
		PortionMismatchTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "portion_mismatch_total",
			Help:      "Meal results whose portion keys do not match the ingredient list.",
		}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Latency of the upstream vision model call.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60, 120},
		}, []string{"provider"}),
	}
	reg.MustRegister(
		versioncollector.NewCollector(namespace),
		r.RequestsTotal,
		r.FallbacksTotal,
		r.PortionMismatchTotal,
		r.UpstreamDuration,
	)
	return r
}

func (r *Recorder) Request(kind, outcome string) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(kind, outcome).Inc()
}

func (r *Recorder) Fallback(kind string) {
	if r == nil {
		return
	}
	r.FallbacksTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) PortionMismatch() {
	if r == nil {
		return
	}
	r.PortionMismatchTotal.Inc()
}

func (r *Recorder) Upstream(provider string, d time.Duration) {
	if r == nil {
		return
	}
	r.UpstreamDuration.WithLabelValues(provider).Observe(d.Seconds())
}
