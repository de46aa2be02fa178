// Package metrics exposes Prometheus instrumentation for the poller and API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/velivert/velivert/internal/models"
)

const (
	metricPrefix = "velivert_"

	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics bundles the service metrics. A nil *Metrics is a no-op.
type Metrics struct {
	CyclesTotal   *prometheus.CounterVec
	CycleDuration *prometheus.HistogramVec
	FetchErrors   *prometheus.CounterVec
	SkippedTicks  prometheus.Counter
	Stations      prometheus.Gauge
	Bikes         *prometheus.GaugeVec
	Requests      *prometheus.CounterVec
}

// New constructs the metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "poll_cycles_total",
				Help: "Total poll cycles by result",
			},
			[]string{"result"},
		),
		CycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "poll_cycle_duration_seconds",
				Help:    "Poll cycle duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		FetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "feed_errors_total",
				Help: "Total feed fetch errors by kind",
			},
			[]string{"kind"},
		),
		SkippedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "poll_skipped_ticks_total",
			Help: "Ticks skipped because a cycle was still in flight",
		}),
		Stations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "stations",
			Help: "Stations in the published snapshot",
		}),
		Bikes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "bikes",
				Help: "Bikes in the published snapshot by availability",
			},
			[]string{"status"},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
	reg.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.FetchErrors,
		m.SkippedTicks,
		m.Stations,
		m.Bikes,
		m.Requests,
	)
	return m
}

// ObserveCycle records the outcome and duration of one poll cycle
func (m *Metrics) ObserveCycle(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(result).Inc()
	m.CycleDuration.WithLabelValues(result).Observe(d.Seconds())
}

// FetchError counts a failed fetch by error kind
func (m *Metrics) FetchError(kind string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(kind).Inc()
}

// SkippedTick counts a tick dropped by the skip-if-busy policy
func (m *Metrics) SkippedTick() {
	if m == nil {
		return
	}
	m.SkippedTicks.Inc()
}

// SetSnapshot updates the fleet gauges from a published snapshot
func (m *Metrics) SetSnapshot(snap models.Snapshot) {
	if m == nil {
		return
	}
	m.Stations.Set(float64(len(snap.Stations)))
	m.Bikes.WithLabelValues(models.Free.String()).Set(float64(snap.Counts.Free))
	m.Bikes.WithLabelValues(models.Reserved.String()).Set(float64(snap.Counts.Reserved))
	m.Bikes.WithLabelValues(models.Disabled.String()).Set(float64(snap.Counts.Disabled))
}

// Request counts a served HTTP request
func (m *Metrics) Request(route string, code int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, statusCode(code)).Inc()
}

func statusCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
