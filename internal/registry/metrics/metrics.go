package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registry module's Prometheus metrics.
type Metrics struct {
	Registrations     *prometheus.CounterVec
	Attestations      *prometheus.CounterVec
	Lookups           *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New creates and registers all registry metrics.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attestry_registrations_total",
			Help: "Registration attempts by result",
		}, []string{"result"}),
		Attestations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attestry_attestations_total",
			Help: "Attestation attempts by result",
		}, []string{"result"}),
		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attestry_lookups_total",
			Help: "Lookups by result",
		}, []string{"result"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attestry_registry_operation_duration_seconds",
			Help:    "Registry store operation latency",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"operation"}),
	}
}

// RecordRegistration counts one registration attempt.
func (m *Metrics) RecordRegistration(result string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(result).Inc()
}

// RecordAttestation counts one attestation attempt.
func (m *Metrics) RecordAttestation(result string) {
	if m == nil {
		return
	}
	m.Attestations.WithLabelValues(result).Inc()
}

// RecordLookup counts one lookup.
func (m *Metrics) RecordLookup(result string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(result).Inc()
}

// ObserveOperation records a store operation's latency.
func (m *Metrics) ObserveOperation(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(seconds)
}
