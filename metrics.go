package blockbench

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Restart reasons
const (
	RestartClockFaster = "clock_faster"
	RestartClockSlower = "clock_slower"
)

// Metrics collects per-run counters. Each run owns its registry, written out
// once as a Prometheus text file.
type Metrics struct {
	registry *prometheus.Registry

	// TrialsMeasured counts adaptive-timer runs of scheduled trials
	TrialsMeasured prometheus.Counter
	// TrialsDiscarded counts measured trials thrown away by a restart
	TrialsDiscarded prometheus.Counter
	// Restarts counts rewinds by reason
	Restarts *prometheus.CounterVec
	// Calibrations counts clock probe runs
	Calibrations prometheus.Counter
	// BackoffSeconds accumulates time slept waiting for the clock to recover
	BackoffSeconds prometheus.Counter
	// ClockSpeed is the latest clock probe estimate
	ClockSpeed prometheus.Gauge
	// TrialGFLOPS is the distribution of measured throughputs
	TrialGFLOPS prometheus.Histogram
}

// NewMetrics registers the run metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		TrialsMeasured: f.NewCounter(prometheus.CounterOpts{
			Name: "blockbench_trials_measured_total",
			Help: "Trials measured by the adaptive timer",
		}),
		TrialsDiscarded: f.NewCounter(prometheus.CounterOpts{
			Name: "blockbench_trials_discarded_total",
			Help: "Measured trials discarded because clock speed drifted",
		}),
		Restarts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blockbench_restarts_total",
			Help: "Scheduler rewinds by reason",
		}, []string{"reason"}),
		Calibrations: f.NewCounter(prometheus.CounterOpts{
			Name: "blockbench_calibrations_total",
			Help: "Clock probe runs",
		}),
		BackoffSeconds: f.NewCounter(prometheus.CounterOpts{
			Name: "blockbench_backoff_sleep_seconds_total",
			Help: "Seconds slept waiting for clock speed to recover",
		}),
		ClockSpeed: f.NewGauge(prometheus.GaugeOpts{
			Name: "blockbench_clock_speed_estimate",
			Help: "Latest clock speed estimate (relative units, this run only)",
		}),
		TrialGFLOPS: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "blockbench_trial_gflops",
			Help:    "Measured trial throughput in GFLOPS",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 12), // 0.25 to 512
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
