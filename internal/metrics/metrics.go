// Package metrics exposes Prometheus counters for draft saves, submissions
// and editing sessions.
package metrics

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry
type Metrics struct {
	DraftSaves       *prometheus.CounterVec // kind, result
	RecordsCreated   *prometheus.CounterVec // kind
	SubmitFailures   *prometheus.CounterVec // kind
	ValidationErrors *prometheus.CounterVec // operation

	registry *prometheus.Registry
}

// New registers every collector. activeSessions backs the
// sitecheck_active_sessions gauge and may be nil.
func New(activeSessions func() int) (*Metrics, error) {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		DraftSaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecheck_draft_saves_total",
				Help: "Draft day saves by inspection kind and result",
			},
			[]string{"kind", "result"}, // result: success, error
		),
		RecordsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecheck_records_created_total",
				Help: "Inspection records created by submission",
			},
			[]string{"kind"},
		),
		SubmitFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecheck_submit_failures_total",
				Help: "Week submissions that stopped on a backend failure",
			},
			[]string{"kind"},
		),
		ValidationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecheck_validation_errors_total",
				Help: "Operations rejected by validation",
			},
			[]string{"operation"},
		),
	}

	collectors := []prometheus.Collector{m.DraftSaves, m.RecordsCreated, m.SubmitFailures, m.ValidationErrors}
	if activeSessions != nil {
		collectors = append(collectors, prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "sitecheck_active_sessions",
				Help: "Open editing sessions",
			},
			func() float64 { return float64(activeSessions()) },
		))
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// DraftSaved counts one save attempt
func (m *Metrics) DraftSaved(kind string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.DraftSaves.WithLabelValues(kind, result).Inc()
}
