// Package metrics exposes Prometheus metrics for the report pipeline.
//
// Counters:
//   - reports_requested_total: reports accepted by the API or CLI
//   - reports_completed_total: reports that reached COMPLETED
//   - reports_failed_total{reason}: reports that reached FAILED, by cause
//
// Histograms:
//   - report_gate_wait_seconds: time spent waiting for a rendering slot
//   - report_generation_seconds: time from slot acquisition to terminal state
//
// Gauges:
//   - report_gate_in_use / report_gate_waiting: concurrency gate occupancy
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure reasons recorded on reports_failed_total.
const (
	ReasonInvalidState = "invalid_state"
	ReasonRender       = "render"
	ReasonTimeout      = "timeout"
	ReasonInternal     = "internal"
)

// Collector holds the pipeline metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	requested  prometheus.Counter
	completed  prometheus.Counter
	failed     *prometheus.CounterVec
	gateWait   prometheus.Histogram
	generation prometheus.Histogram
	gateInUse  prometheus.Gauge
	gateQueue  prometheus.Gauge
}

// NewCollector creates the collectors and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reports_requested_total",
			Help: "Total number of ranking reports requested",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reports_completed_total",
			Help: "Total number of ranking reports completed",
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reports_failed_total",
			Help: "Total number of ranking reports failed, by reason",
		}, []string{"reason"}),
		gateWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "report_gate_wait_seconds",
			Help:    "Time spent waiting for a rendering slot",
			Buckets: prometheus.DefBuckets,
		}),
		generation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "report_generation_seconds",
			Help:    "Time from slot acquisition to terminal report state",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		gateInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "report_gate_in_use",
			Help: "Rendering slots currently held",
		}),
		gateQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "report_gate_waiting",
			Help: "Reports currently waiting for a rendering slot",
		}),
	}

	reg.MustRegister(c.requested, c.completed, c.failed, c.gateWait, c.generation, c.gateInUse, c.gateQueue)
	return c
}

// RecordRequested counts an accepted report request.
func (c *Collector) RecordRequested() {
	if c == nil {
		return
	}
	c.requested.Inc()
}

// RecordGateWait observes how long a report waited for its slot.
func (c *Collector) RecordGateWait(seconds float64) {
	if c == nil {
		return
	}
	c.gateWait.Observe(seconds)
}

// RecordCompleted counts a completed report and its generation time.
func (c *Collector) RecordCompleted(seconds float64) {
	if c == nil {
		return
	}
	c.completed.Inc()
	c.generation.Observe(seconds)
}

// RecordFailed counts a failed report under reason.
func (c *Collector) RecordFailed(reason string, seconds float64) {
	if c == nil {
		return
	}
	c.failed.WithLabelValues(reason).Inc()
	c.generation.Observe(seconds)
}

// UpdateGateStats publishes the gate's current occupancy.
func (c *Collector) UpdateGateStats(inUse, waiting int) {
	if c == nil {
		return
	}
	c.gateInUse.Set(float64(inUse))
	c.gateQueue.Set(float64(waiting))
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
