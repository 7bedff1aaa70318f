// Package metrics holds the Prometheus collectors for ETL runs, OLAP
// queries and the result cache. Collectors live on a private registry that
// is either scraped by the HTTP server or pushed to a Pushgateway after an
// ETL run.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "salesdw"

// Step and query statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics is a set of registered collectors.
type Metrics struct {
	reg *prometheus.Registry

	etlRows      *prometheus.CounterVec
	etlDropped   *prometheus.CounterVec
	etlSteps     *prometheus.CounterVec
	etlDuration  *prometheus.HistogramVec
	lastRun      prometheus.Gauge
	queries      *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
}

// New creates collectors on a fresh registry. withRuntime adds the Go and
// process collectors, which a pushed job does not want.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		etlRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "etl_rows_total",
			Help:      "Rows read and written by the ETL, by table and stage.",
		}, []string{"table", "stage"}),
		etlDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "etl_rows_dropped_total",
			Help:      "Rows dropped by the ETL transforms, by table and reason.",
		}, []string{"table", "reason"}),
		etlSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "etl_step_total",
			Help:      "ETL step executions, by step and status.",
		}, []string{"step", "status"}),
		etlDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "etl_step_duration_seconds",
			Help:      "Duration of ETL steps in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"step", "status"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "etl_last_run_timestamp_seconds",
			Help:      "Unix time of the last completed ETL run.",
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "olap_queries_total",
			Help:      "OLAP queries executed, by operation and status.",
		}, []string{"operation", "status"}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "olap_query_duration_seconds",
			Help:      "OLAP query latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "olap_cache_lookups_total",
			Help:      "OLAP result cache lookups, by result (hit or miss).",
		}, []string{"result"}),
	}

	m.reg.MustRegister(
		m.etlRows, m.etlDropped, m.etlSteps, m.etlDuration, m.lastRun,
		m.queries, m.queryLatency, m.cacheLookups,
	)
	if withRuntime {
		m.reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveStep records one ETL step and its duration.
func (m *Metrics) ObserveStep(step string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := statusOf(err)
	m.etlSteps.WithLabelValues(step, status).Inc()
	m.etlDuration.WithLabelValues(step, status).Observe(d.Seconds())
}

// AddRows counts rows passing through an ETL stage (extracted, loaded).
func (m *Metrics) AddRows(table, stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.etlRows.WithLabelValues(table, stage).Add(float64(n))
}

// AddDropped counts rows dropped by a transform.
func (m *Metrics) AddDropped(table string, dropped map[string]int) {
	if m == nil {
		return
	}
	for reason, n := range dropped {
		m.etlDropped.WithLabelValues(table, reason).Add(float64(n))
	}
}

// MarkRun sets the last-run timestamp.
func (m *Metrics) MarkRun(t time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(t.Unix()))
}

// ObserveQuery records one OLAP query.
func (m *Metrics) ObserveQuery(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(operation, statusOf(err)).Inc()
	if err == nil {
		m.queryLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// CacheLookup counts a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Push sends the registry to a Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	if gatewayURL == "" {
		return fmt.Errorf("pushgateway URL is required")
	}
	if job == "" {
		job = "pgedge-salesdw"
	}
	if err := push.New(gatewayURL, job).Gatherer(m.reg).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}

func statusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
