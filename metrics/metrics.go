// Package metrics provides Prometheus metrics for schegen
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector on its own registry, so several instances
// can live in one process.
type Metrics struct {
	Registry *prometheus.Registry

	GenerationsTotal    *prometheus.CounterVec
	GenerationDuration  *prometheus.HistogramVec
	ClassificationTotal *prometheus.CounterVec

	MutationsTotal *prometheus.CounterVec
	BackupsTotal   *prometheus.CounterVec
	RollbacksTotal *prometheus.CounterVec

	AICallDuration *prometheus.HistogramVec
	BatchItems     *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schegen_generations_total",
				Help: "Total number of schema generations",
			},
			[]string{"page_type", "mode", "status"},
		),
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "schegen_generation_duration_seconds",
				Help:    "Duration of schema generations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		ClassificationTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schegen_classifications_total",
				Help: "Total number of page classifications by decided type",
			},
			[]string{"page_type"},
		),
		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schegen_mutations_total",
				Help: "Total number of schema meta mutations",
			},
			[]string{"action", "outcome"},
		),
		BackupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schegen_backups_total",
				Help: "Total number of backups taken",
			},
			[]string{"status"},
		),
		RollbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schegen_rollbacks_total",
				Help: "Total number of rollbacks",
			},
			[]string{"status"},
		),
		AICallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "schegen_ai_call_duration_seconds",
				Help:    "Duration of generative model calls in seconds",
				Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"provider", "status"},
		),
		BatchItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schegen_batch_items_total",
				Help: "Total number of batch items by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// The Record helpers are nil-safe so components can run without metrics.

func (m *Metrics) RecordGeneration(pageType, mode string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(pageType, mode, status(err)).Inc()
	m.GenerationDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func (m *Metrics) RecordClassification(pageType string) {
	if m == nil {
		return
	}
	m.ClassificationTotal.WithLabelValues(pageType).Inc()
}

// RecordMutation counts a write; simulated writes use the "dry_run" outcome.
func (m *Metrics) RecordMutation(action string, simulated bool, err error) {
	if m == nil {
		return
	}
	outcome := status(err)
	if simulated && err == nil {
		outcome = "dry_run"
	}
	m.MutationsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) RecordBackup(err error) {
	if m == nil {
		return
	}
	m.BackupsTotal.WithLabelValues(status(err)).Inc()
}

func (m *Metrics) RecordRollback(err error) {
	if m == nil {
		return
	}
	m.RollbacksTotal.WithLabelValues(status(err)).Inc()
}

func (m *Metrics) RecordAICall(provider string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.AICallDuration.WithLabelValues(provider, status(err)).Observe(duration.Seconds())
}

func (m *Metrics) RecordBatchItem(outcome string) {
	if m == nil {
		return
	}
	m.BatchItems.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
