// Package metrics exposes Prometheus instrumentation for the analytics
// core. A single Manager owns every collector; handlers and workers
// record through it rather than registering collectors themselves.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prepwise_analytics"

// Manager holds all Prometheus collectors for the service.
type Manager struct {
	registry *prometheus.Registry

	eventsIngested   prometheus.Counter
	metricsIngested  prometheus.Counter
	duplicateWrites  prometheus.Counter
	ingestFailures   prometheus.Counter
	queryLatency     *prometheus.HistogramVec
	cacheHits        *prometheus.CounterVec
	reportExecutions *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	exportsRunning   prometheus.Gauge
}

// NewManager creates a Manager with its own registry so tests can run
// several side by side.
func NewManager() *Manager {
	reg := prometheus.NewRegistry()

	m := &Manager{
		registry: reg,
		eventsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_ingested_total",
			Help:      "Practice events accepted for storage.",
		}),
		metricsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metrics_ingested_total",
			Help:      "Metric observations accepted for storage.",
		}),
		duplicateWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_writes_total",
			Help:      "Ingestion writes skipped because the ID was already stored.",
		}),
		ingestFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_failures_total",
			Help:      "Ingestion writes that failed after retries.",
		}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Latency of analytical queries by kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Comparison cache lookups by outcome.",
		}, []string{"outcome"}),
		reportExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_executions_total",
			Help:      "Report executions by terminal status.",
		}, []string{"status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_job_duration_seconds",
			Help:      "Duration of background scheduler jobs.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"job"}),
		exportsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "exports_running",
			Help:      "Data exports currently in the running state.",
		}),
	}

	reg.MustRegister(
		m.eventsIngested,
		m.metricsIngested,
		m.duplicateWrites,
		m.ingestFailures,
		m.queryLatency,
		m.cacheHits,
		m.reportExecutions,
		m.jobDuration,
		m.exportsRunning,
	)

	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// EventIngested increments the accepted-event counter.
func (m *Manager) EventIngested() { m.eventsIngested.Inc() }

// MetricIngested increments the accepted-metric counter.
func (m *Manager) MetricIngested() { m.metricsIngested.Inc() }

// DuplicateWrite records an ingestion write skipped as a duplicate.
func (m *Manager) DuplicateWrite() { m.duplicateWrites.Inc() }

// IngestFailure records an ingestion write that failed after retries.
func (m *Manager) IngestFailure() { m.ingestFailures.Inc() }

// ObserveQuery records the latency of one analytical query.
func (m *Manager) ObserveQuery(kind string, d time.Duration) {
	m.queryLatency.WithLabelValues(kind).Observe(d.Seconds())
}

// CacheHit records a comparison cache hit.
func (m *Manager) CacheHit() { m.cacheHits.WithLabelValues("hit").Inc() }

// CacheMiss records a comparison cache miss.
func (m *Manager) CacheMiss() { m.cacheHits.WithLabelValues("miss").Inc() }

// ReportExecution records a report execution reaching a terminal status.
func (m *Manager) ReportExecution(status string) {
	m.reportExecutions.WithLabelValues(status).Inc()
}

// ObserveJob records the duration of one scheduler job run.
func (m *Manager) ObserveJob(job string, d time.Duration) {
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// ExportStarted bumps the running-exports gauge.
func (m *Manager) ExportStarted() { m.exportsRunning.Inc() }

// ExportFinished decrements the running-exports gauge.
func (m *Manager) ExportFinished() { m.exportsRunning.Dec() }
