package blockbench

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SpeedProbe estimates the current effective speed of the machine. Values
// are only comparable with other values from the same probe in the same run.
type SpeedProbe interface {
	Measure() (float64, error)
}

// CalibrationReporter is implemented by probes that keep details of their
// most recent measurement.
type CalibrationReporter interface {
	LastCalibration() Calibration
}

// Calibration is the outcome of one clock probe.
type Calibration struct {
	Estimate float64
	// Samples are the sorted per-run throughputs.
	Samples []float64
	// Spread is the relative standard deviation of Samples.
	Spread float64
	// GHz is the effective clock rate seen by the cycle counter, or 0.
	GHz float64
}

// ClockProbe measures a small product that stays resident in L1 cache,
// several times, and reduces the results to a speed estimate. Removing
// cache misses from the picture leaves clock speed as the main variable.
type ClockProbe struct {
	timer   *AdaptiveTimer
	clock   CPUClock
	cycles  CycleCounter
	problem SizeTriple
	cfg     ProbeConfig
	logger  *slog.Logger

	// Last holds the most recent calibration.
	Last Calibration
}

// NewClockProbe creates a probe that runs through timer. cycles may be nil.
func NewClockProbe(timer *AdaptiveTimer, clock CPUClock, cycles CycleCounter, cfg ProbeConfig, logger *slog.Logger) *ClockProbe {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClockProbe{
		timer:   timer,
		clock:   clock,
		cycles:  cycles,
		problem: SizeTriple{K: cfg.Size, M: cfg.Size, N: cfg.Size},
		cfg:     cfg,
		logger:  logger,
	}
}

// Measure runs the probe trial cfg.Samples times, drops the extremes and
// sums the four middle results.
func (p *ClockProbe) Measure() (float64, error) {
	startCycles, haveCycles := p.readCycles()
	startCPU := p.clock.CPUTime()

	samples := make([]float64, 0, p.cfg.Samples)
	for i := 0; i < p.cfg.Samples; i++ {
		t := Trial{
			Problem:  p.problem,
			Blocking: DefaultBlocking(),
			// One operand set, reused: warm caches on purpose.
			MinWorkingSetSize: 1,
			MinAccurateTime:   p.cfg.MinAccurateTime,
		}
		if err := p.timer.Run(&t); err != nil {
			return 0, err
		}
		samples = append(samples, t.GFlops)
	}
	sort.Float64s(samples)

	lo := (len(samples) - 4) / 2
	middle := samples[lo : lo+4]
	estimate := floats.Sum(middle) * p.cfg.Multiplier

	cal := Calibration{Estimate: estimate, Samples: samples}
	if mean := stat.Mean(samples, nil); mean > 0 {
		cal.Spread = stat.StdDev(samples, nil) / mean
	}
	if haveCycles {
		if endCycles, ok := p.readCycles(); ok {
			cal.GHz = EffectiveGHz(endCycles-startCycles, p.clock.CPUTime()-startCPU)
		}
	}
	p.Last = cal

	attrs := []any{
		slog.Float64("estimate", estimate),
		slog.Float64("spread", cal.Spread),
	}
	if cal.GHz > 0 {
		attrs = append(attrs, slog.Float64("ghz", cal.GHz))
	}
	p.logger.Debug("measured clock speed", attrs...)
	return estimate, nil
}

// LastCalibration returns the most recent calibration.
func (p *ClockProbe) LastCalibration() Calibration {
	return p.Last
}

func (p *ClockProbe) readCycles() (uint64, bool) {
	if p.cycles == nil {
		return 0, false
	}
	c, err := p.cycles.Cycles()
	if err != nil {
		return 0, false
	}
	return c, true
}
