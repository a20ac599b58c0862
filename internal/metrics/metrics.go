package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "feerouter"

	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Recorder holds the router's counters. A nil *Recorder records nothing.
type Recorder struct {
	operations   *prometheus.CounterVec
	forwardCalls *prometheus.CounterVec
	skimCalls    *prometheus.CounterVec
	skimmed      *prometheus.CounterVec
	events       *prometheus.CounterVec
}

// New registers the counters on reg. A nil reg gets a private registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Recorder{
		operations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "operations_total",
			Help:      "Router operations by kind and outcome.",
		}, []string{"kind", "status"}),
		forwardCalls: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "forward_calls_total",
			Help:      "Calls forwarded to the AMM program by kind and outcome.",
		}, []string{"kind", "status"}),
		skimCalls: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "skim_calls_total",
			Help:      "Fee transfer calls by leg and outcome.",
		}, []string{"leg", "status"}),
		skimmed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "skimmed_amount_total",
			Help:      "Raw token amount requested by successful fee transfers, by leg.",
		}, []string{"leg"}),
		events: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Skim events handed to sinks by sink and outcome.",
		}, []string{"sink", "status"}),
	}
}

func status(ok bool) string {
	if ok {
		return StatusOK
	}
	return StatusFailed
}

func (r *Recorder) Operation(kind string, ok bool) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(kind, status(ok)).Inc()
}

func (r *Recorder) ForwardCall(kind string, ok bool) {
	if r == nil {
		return
	}
	r.forwardCalls.WithLabelValues(kind, status(ok)).Inc()
}

func (r *Recorder) SkimCall(leg string, amount uint64, ok bool) {
	if r == nil {
		return
	}
	r.skimCalls.WithLabelValues(leg, status(ok)).Inc()
	if ok {
		r.skimmed.WithLabelValues(leg).Add(float64(amount))
	}
}

func (r *Recorder) Event(sink string, ok bool) {
	if r == nil {
		return
	}
	r.events.WithLabelValues(sink, status(ok)).Inc()
}
