// Package metrics exposes a Prometheus registry for the drilling
// pipeline. Grounded on teacher
// internal/interfaces/http/metrics.go's MetricsRegistry (one struct
// of prometheus.CounterVec/GaugeVec/HistogramVec fields, built and
// registered in a single NewRegistry constructor, with small
// Record*/Increment* methods wrapping label application) — the vector
// set is retargeted from scan-pipeline/exchange metrics to drilling
// packet ingestion, ticket classification, advisory sourcing, ACI
// calibration, baseline lifecycle, optimizer skips, and sensor
// reconnects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every metric the drilling pipeline exports.
type Registry struct {
	PacketsIngested  prometheus.Counter
	PacketsDropped   prometheus.Counter
	IngestLatency    prometheus.Histogram

	TicketsRaised   *prometheus.CounterVec // category, severity
	TicketsVerified *prometheus.CounterVec // category, status

	AdvisoriesEmitted *prometheus.CounterVec // category, source

	ACIAlpha     *prometheus.GaugeVec // metric
	ACICoverage  *prometheus.GaugeVec // metric

	BaselineLocked *prometheus.GaugeVec // parameter (1=locked, 0=learning)

	OptimizerSkips     *prometheus.CounterVec // reason
	OptimizerEmitted   prometheus.Counter
	LookAheadsEmitted  prometheus.Counter

	SensorReconnects prometheus.Counter
	SensorStale      prometheus.Counter
}

// NewRegistry builds and registers every metric against reg (pass
// prometheus.NewRegistry() for isolated tests, or
// prometheus.DefaultRegisterer in production).
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		PacketsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sairen_packets_ingested_total",
			Help: "Total WITS packets ingested from the sensor feed.",
		}),
		PacketsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sairen_packets_dropped_total",
			Help: "Total packets dropped at ingest due to back-pressure.",
		}),
		IngestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sairen_ingest_latency_seconds",
			Help:    "Per-packet pipeline processing latency.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),

		TicketsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sairen_tickets_raised_total",
			Help: "Anomaly tickets raised by the tactical agent, by category and severity.",
		}, []string{"category", "severity"}),

		TicketsVerified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sairen_tickets_verified_total",
			Help: "Tickets resolved by strategic verification, by category and outcome.",
		}, []string{"category", "status"}),

		AdvisoriesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sairen_advisories_emitted_total",
			Help: "Strategic advisories emitted, by category and source.",
		}, []string{"category", "source"}),

		ACIAlpha: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sairen_aci_alpha",
			Help: "Current adaptive miscoverage rate per tracked metric.",
		}, []string{"metric"}),

		ACICoverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sairen_aci_coverage",
			Help: "Running empirical coverage per tracked metric.",
		}, []string{"metric"}),

		BaselineLocked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sairen_baseline_locked",
			Help: "Baseline lifecycle state per parameter (1=locked, 0=learning).",
		}, []string{"parameter"}),

		OptimizerSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sairen_optimizer_skips_total",
			Help: "Optimizer evaluation cycles skipped, by reason.",
		}, []string{"reason"}),

		OptimizerEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sairen_optimizer_advisories_total",
			Help: "Optimization advisories successfully emitted.",
		}),

		LookAheadsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sairen_lookahead_advisories_total",
			Help: "Independent look-ahead advisories emitted.",
		}),

		SensorReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sairen_sensor_reconnects_total",
			Help: "Sensor transport reconnect attempts.",
		}),

		SensorStale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sairen_sensor_stale_total",
			Help: "Forced reconnects triggered by a stale sensor connection.",
		}),
	}

	reg.MustRegister(
		r.PacketsIngested, r.PacketsDropped, r.IngestLatency,
		r.TicketsRaised, r.TicketsVerified,
		r.AdvisoriesEmitted,
		r.ACIAlpha, r.ACICoverage,
		r.BaselineLocked,
		r.OptimizerSkips, r.OptimizerEmitted, r.LookAheadsEmitted,
		r.SensorReconnects, r.SensorStale,
	)
	return r
}

// IngestTimer times a single packet's pipeline processing and records
// the observation on Stop, mirroring teacher metrics.go's StepTimer.
type IngestTimer struct {
	r     *Registry
	start time.Time
}

// StartIngestTimer begins timing one packet's processing.
func (r *Registry) StartIngestTimer() *IngestTimer {
	return &IngestTimer{r: r, start: time.Now()}
}

// Stop records the elapsed duration.
func (t *IngestTimer) Stop() {
	t.r.IngestLatency.Observe(time.Since(t.start).Seconds())
}
