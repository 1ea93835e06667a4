/*
Package metrics exposes Prometheus instrumentation for pipeline ticks.

Available metrics:
  - fedpipeline_ticks_total{status}: finished ticks by outcome (success, degraded, aborted)
  - fedpipeline_entity_syncs_total{entity,status}: entity syncs by outcome
  - fedpipeline_entity_rows_total{entity,outcome}: rows fetched, attempted and failed
  - fedpipeline_entity_sync_duration_seconds{entity}: time spent per entity sync
  - fedpipeline_last_tick_timestamp_seconds: unix time the last tick finished

Each Metrics value owns its registry so tests never share state.
*/
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
	"github.com/rs/zerolog"

	"fedpipeline/internal/etl"
)

const namespace = "fedpipeline"

// Metrics records tick outcomes.
type Metrics struct {
	reg *prometheus.Registry

	Ticks        *prometheus.CounterVec
	EntitySyncs  *prometheus.CounterVec
	EntityRows   *prometheus.CounterVec
	SyncDuration *prometheus.HistogramVec
	LastTick     prometheus.Gauge
}

// New creates a Metrics with its own registry, including Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		Ticks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Finished ticks by outcome.",
		}, []string{"status"}),
		EntitySyncs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entity_syncs_total",
			Help:      "Entity syncs by outcome.",
		}, []string{"entity", "status"}),
		EntityRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entity_rows_total",
			Help:      "Rows fetched, attempted and failed per entity.",
		}, []string{"entity", "outcome"}),
		SyncDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "entity_sync_duration_seconds",
			Help:      "Time spent syncing one entity.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"entity"}),
		LastTick: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_tick_timestamp_seconds",
			Help:      "Unix time the most recent tick finished.",
		}),
	}
}

// ObserveTick records a finished tick.
func (m *Metrics) ObserveTick(_ context.Context, t *etl.TickResult) {
	m.Ticks.WithLabelValues(string(t.Status)).Inc()
	m.LastTick.Set(float64(t.FinishedAt.Unix()))

	for _, s := range t.Entities {
		m.EntitySyncs.WithLabelValues(s.Entity, string(s.Status)).Inc()
		m.EntityRows.WithLabelValues(s.Entity, "fetched").Add(float64(s.RowsFetched))
		m.EntityRows.WithLabelValues(s.Entity, "attempted").Add(float64(s.RowsAttempted))
		m.EntityRows.WithLabelValues(s.Entity, "failed").Add(float64(s.RowsFailed))
		m.SyncDuration.WithLabelValues(s.Entity).Observe(s.Duration.Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		log.Info().Str("addr", addr).Msg("metrics listener started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics listener failed")
		}
	}()
}
