// Package metrics exposes Prometheus collectors for document conversion and
// ingestion.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OpFormat = "format"
	OpParse  = "parse"

	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type Metrics struct {
	documents    *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	observations prometheus.Counter
	current      prometheus.Gauge
	clients      prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mtc_documents_total",
			Help: "Streams documents formatted or parsed, by format, operation and outcome.",
		}, []string{"format", "op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mtc_document_duration_seconds",
			Help:    "Time spent formatting or parsing a streams document.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"format", "op"}),
		observations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mtc_observations_ingested_total",
			Help: "Observations merged into the current-value store.",
		}),
		current: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mtc_current_observations",
			Help: "Observations held in the current-value store.",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mtc_websocket_clients",
			Help: "Connected websocket clients.",
		}),
	}

	reg.MustRegister(m.documents, m.duration, m.observations, m.current, m.clients)
	return m
}

// ObserveDocument records one format or parse call.
func (m *Metrics) ObserveDocument(format, op string, elapsed time.Duration, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.documents.WithLabelValues(format, op, outcome).Inc()
	m.duration.WithLabelValues(format, op).Observe(elapsed.Seconds())
}

func (m *Metrics) AddObservations(n int) {
	m.observations.Add(float64(n))
}

func (m *Metrics) SetCurrent(n int) {
	m.current.Set(float64(n))
}

func (m *Metrics) SetClients(n int) {
	m.clients.Set(float64(n))
}
