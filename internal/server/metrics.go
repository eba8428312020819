package server

import (
	"time"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/prometheus/client_golang/prometheus"
)

// SessionMetrics exports session load and query events to Prometheus.
type SessionMetrics struct {
	LoadDuration  *prometheus.HistogramVec
	LoadedRows    *prometheus.GaugeVec
	QueryDuration *prometheus.HistogramVec
	QueryRows     *prometheus.HistogramVec
	Failures      *prometheus.CounterVec
}

var _ contract.Observer = (*SessionMetrics)(nil) // Compile-time check

// Register creates the collectors and registers them with r.
func (m *SessionMetrics) Register(r prometheus.Registerer) {
	name := func(n string) string { return "loadcompare_" + n }
	scenarioLabels := []string{"scenario"}

	m.LoadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name("load_duration_seconds"),
		Help:    "Time to fetch, normalize and load a scenario file",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, scenarioLabels)
	r.MustRegister(m.LoadDuration)

	m.LoadedRows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name("loaded_rows"),
		Help: "Rows in the query table after the last successful load",
	}, scenarioLabels)
	r.MustRegister(m.LoadedRows)

	m.QueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name("query_duration_seconds"),
		Help:    "Time to run a filter query",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, scenarioLabels)
	r.MustRegister(m.QueryDuration)

	m.QueryRows = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name("query_rows"),
		Help:    "Rows returned by a filter query",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, scenarioLabels)
	r.MustRegister(m.QueryRows)

	m.Failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name("failures_total"),
		Help: "Failed loads and queries by stage and error category",
	}, []string{"stage", "category"})
	r.MustRegister(m.Failures)
}

// ObserveLoad implements contract.Observer.
func (m *SessionMetrics) ObserveLoad(scenarioID string, rows int, duration time.Duration, err error) {
	if err != nil {
		m.Failures.WithLabelValues("load", string(contract.CategoryOf(err))).Inc()
		return
	}
	m.LoadDuration.WithLabelValues(scenarioID).Observe(duration.Seconds())
	m.LoadedRows.WithLabelValues(scenarioID).Set(float64(rows))
}

// ObserveQuery implements contract.Observer.
func (m *SessionMetrics) ObserveQuery(scenarioID string, rows int, duration time.Duration, err error) {
	if err != nil {
		m.Failures.WithLabelValues("query", string(contract.CategoryOf(err))).Inc()
		return
	}
	m.QueryDuration.WithLabelValues(scenarioID).Observe(duration.Seconds())
	m.QueryRows.WithLabelValues(scenarioID).Observe(float64(rows))
}
