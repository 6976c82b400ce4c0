package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Construct it
// once in main; services accept a nil *Metrics and skip instrumentation.
type Metrics struct {
	LookupsTotal       *prometheus.CounterVec
	SourceLatency      *prometheus.HistogramVec
	TransitionsTotal   *prometheus.CounterVec
	AttestationsTotal  *prometheus.CounterVec
	PermissionDenials  prometheus.Counter
	ReconcilerRepaired prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LookupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agritrace_lookups_total",
			Help: "Verification lookups by outcome (verified, not_found, failed)",
		}, []string{"outcome"}),
		SourceLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agritrace_lookup_source_latency_seconds",
			Help:    "Latency of each lookup source branch",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"source"}),
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agritrace_transitions_total",
			Help: "Completed state machine transitions by action",
		}, []string{"action"}),
		AttestationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agritrace_attestations_total",
			Help: "Ledger attestation attempts by result (ok, failed)",
		}, []string{"result"}),
		PermissionDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agritrace_permission_denials_total",
			Help: "Transitions blocked by the permission guard",
		}),
		ReconcilerRepaired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agritrace_reconciler_repaired_total",
			Help: "Verified-but-unattested products repaired by the reconciler",
		}),
	}
}

// ObserveLookup records a completed verification lookup.
func (m *Metrics) ObserveLookup(outcome string) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSourceLatency records one source branch's duration.
func (m *Metrics) ObserveSourceLatency(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.SourceLatency.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveTransition records a completed state machine transition.
func (m *Metrics) ObserveTransition(action string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(action).Inc()
}

// ObserveAttestation records a ledger attestation attempt.
func (m *Metrics) ObserveAttestation(result string) {
	if m == nil {
		return
	}
	m.AttestationsTotal.WithLabelValues(result).Inc()
}

// ObservePermissionDenial records a guard rejection.
func (m *Metrics) ObservePermissionDenial() {
	if m == nil {
		return
	}
	m.PermissionDenials.Inc()
}

// ObserveReconcilerRepair records one repaired attestation.
func (m *Metrics) ObserveReconcilerRepair() {
	if m == nil {
		return
	}
	m.ReconcilerRepaired.Inc()
}
