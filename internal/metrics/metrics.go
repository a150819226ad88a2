// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface the HTTP and service layers use to record
// metrics. A nil-safe no-op implementation is available for tests.
type Recorder interface {
	RecordExpenseWrite(op string)
	RecordHTTPRequest(statusCode int, duration time.Duration)
	RecordBroadcast(subscribers int)
	RecordExport(success bool)
	SetActiveSubscriptions(n int)
}

// Collector implements Recorder on top of Prometheus.
type Collector struct {
	expenseWrites       *prometheus.CounterVec
	httpStatus          *prometheus.CounterVec
	httpLatency         prometheus.Histogram
	broadcasts          prometheus.Counter
	exportSuccess       prometheus.Counter
	exportFail          prometheus.Counter
	activeSubscriptions prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		expenseWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kharcha_expense_writes_total",
			Help: "Total expense write operations by kind.",
		}, []string{"op"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kharcha_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kharcha_http_latency_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kharcha_snapshot_broadcasts_total",
			Help: "Total snapshot broadcasts to live subscribers.",
		}),
		exportSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kharcha_export_success_total",
			Help: "Total successful snapshot exports.",
		}),
		exportFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kharcha_export_fail_total",
			Help: "Total failed snapshot exports.",
		}),
		activeSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kharcha_active_subscriptions",
			Help: "Currently open live update subscriptions.",
		}),
	}

	reg.MustRegister(
		c.expenseWrites,
		c.httpStatus,
		c.httpLatency,
		c.broadcasts,
		c.exportSuccess,
		c.exportFail,
		c.activeSubscriptions,
	)

	return c
}

// RecordExpenseWrite counts a committed write. op is create, update or delete.
func (c *Collector) RecordExpenseWrite(op string) {
	c.expenseWrites.WithLabelValues(op).Inc()
}

// RecordHTTPRequest counts a finished request and observes its latency.
func (c *Collector) RecordHTTPRequest(statusCode int, duration time.Duration) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// RecordBroadcast counts a snapshot fan-out.
func (c *Collector) RecordBroadcast(subscribers int) {
	c.broadcasts.Inc()
}

// RecordExport counts a snapshot export attempt.
func (c *Collector) RecordExport(success bool) {
	if success {
		c.exportSuccess.Inc()
		return
	}
	c.exportFail.Inc()
}

// SetActiveSubscriptions updates the live subscription gauge.
func (c *Collector) SetActiveSubscriptions(n int) {
	c.activeSubscriptions.Set(float64(n))
}

// Noop discards all metrics. Useful in tests.
type Noop struct{}

func (Noop) RecordExpenseWrite(string)            {}
func (Noop) RecordHTTPRequest(int, time.Duration) {}
func (Noop) RecordBroadcast(int)                  {}
func (Noop) RecordExport(bool)                    {}
func (Noop) SetActiveSubscriptions(int)           {}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
