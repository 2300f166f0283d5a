// Package blockbench configuration constants
package blockbench

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache sizes for different levels (in bytes)
const (
	// L1 cache size per core (typical for modern CPUs)
	L1CacheSize = 32 * 1024 // 32KB

	// L2 cache size per core (typical for modern CPUs)
	L2CacheSize = 256 * 1024 // 256KB

	// L3 cache size (shared, typical for modern CPUs)
	L3CacheSize = 8 * 1024 * 1024 // 8MB

	// UnlikelyLargeCacheSize is bigger than any cache in service while
	// being memory every machine has, so cycling through that much
	// operand data always defeats the caches.
	UnlikelyLargeCacheSize = 64 << 20
)

// Measurement defaults
const (
	DefaultMinSize         = 16
	DefaultMaxSize         = 2048
	DefaultRepetitions     = 3
	DefaultMinAccurateTime = 10 * time.Millisecond
	DefaultMaxIterations   = 1 << 40
	DefaultMaxPoolBytes    = 8 << 30
)

// Clock probe defaults. The probe size keeps all three operands resident in
// L1; the multiplier only exists so nobody mistakes the estimate for an
// absolute figure.
const (
	DefaultProbeSize            = 128
	DefaultProbeSamples         = 8
	DefaultProbeInitialSamples  = 4
	DefaultProbeMinAccurateTime = 100 * time.Millisecond
	DefaultProbeMultiplier      = 123.456
)

// Drift control defaults
const (
	DefaultUpperTolerance      = 1.01
	DefaultLowerTolerance      = 0.98
	DefaultCalibrationInterval = 60 * time.Second
	DefaultBackoffInitial      = time.Second
	DefaultBackoffLimit        = 300 * time.Second
	DefaultProgressInterval    = time.Second
)

// ProbeConfig shapes the clock probe.
type ProbeConfig struct {
	Size            int           `yaml:"size"`
	Samples         int           `yaml:"samples"`
	InitialSamples  int           `yaml:"initial_samples"`
	MinAccurateTime time.Duration `yaml:"min_accurate_time"`
	Multiplier      float64       `yaml:"multiplier"`
}

// DriftConfig holds the clock-drift tolerances and cadence.
type DriftConfig struct {
	// A calibration above UpperTolerance*best restarts the whole run.
	UpperTolerance float64 `yaml:"upper_tolerance"`
	// A calibration below LowerTolerance*best triggers backoff.
	LowerTolerance      float64       `yaml:"lower_tolerance"`
	CalibrationInterval time.Duration `yaml:"calibration_interval"`
	BackoffInitial      time.Duration `yaml:"backoff_initial"`
	// The run is abandoned once cumulative backoff sleep exceeds this.
	BackoffLimit time.Duration `yaml:"backoff_limit"`
}

// Config is the full set of harness parameters.
type Config struct {
	MinSize           int           `yaml:"min_size"`
	MaxSize           int           `yaml:"max_size"`
	Repetitions       int           `yaml:"repetitions"`
	MinAccurateTime   time.Duration `yaml:"min_accurate_time"`
	MinWorkingSetSize uint64        `yaml:"min_working_set_size"`
	MaxIterations     int64         `yaml:"max_iterations"`
	MaxPoolBytes      uint64        `yaml:"max_pool_bytes"`
	ProgressInterval  time.Duration `yaml:"progress_interval"`
	// Seed for the trial shuffle; 0 seeds from the wall clock.
	Seed uint64 `yaml:"seed"`

	Probe ProbeConfig `yaml:"probe"`
	Drift DriftConfig `yaml:"drift"`
}

// DefaultConfig returns the parameters the harness was tuned with.
func DefaultConfig() Config {
	return Config{
		MinSize:          DefaultMinSize,
		MaxSize:          DefaultMaxSize,
		Repetitions:      DefaultRepetitions,
		MinAccurateTime:  DefaultMinAccurateTime,
		MaxIterations:    DefaultMaxIterations,
		MaxPoolBytes:     DefaultMaxPoolBytes,
		ProgressInterval: DefaultProgressInterval,
		Probe: ProbeConfig{
			Size:            DefaultProbeSize,
			Samples:         DefaultProbeSamples,
			InitialSamples:  DefaultProbeInitialSamples,
			MinAccurateTime: DefaultProbeMinAccurateTime,
			Multiplier:      DefaultProbeMultiplier,
		},
		Drift: DriftConfig{
			UpperTolerance:      DefaultUpperTolerance,
			LowerTolerance:      DefaultLowerTolerance,
			CalibrationInterval: DefaultCalibrationInterval,
			BackoffInitial:      DefaultBackoffInitial,
			BackoffLimit:        DefaultBackoffLimit,
		},
	}
}

// LoadConfig reads a YAML file over the defaults and validates the result.
// An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, &Error{Type: ErrTypeConfig, Op: "LoadConfig", Message: "cannot read " + path, Err: err}
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &Error{Type: ErrTypeConfig, Op: "LoadConfig", Message: "cannot parse " + path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the invariants the measurement loop relies on.
func (c *Config) Validate() error {
	const op = "Validate"
	switch {
	case !IsPowerOfTwo(c.MinSize):
		return NewConfigError(op, fmt.Sprintf("min_size %d must be a power of two", c.MinSize))
	case !IsPowerOfTwo(c.MaxSize):
		return NewConfigError(op, fmt.Sprintf("max_size %d must be a power of two", c.MaxSize))
	case c.MaxSize <= c.MinSize:
		return NewConfigError(op, "max_size must be larger than min_size")
	case c.MaxSize > MaxDimension:
		return NewConfigError(op, fmt.Sprintf("max_size must not exceed %d", MaxDimension))
	case c.Repetitions < 1:
		return NewConfigError(op, "repetitions must be at least 1")
	case c.MinAccurateTime <= 0:
		return NewConfigError(op, "min_accurate_time must be positive")
	case c.MaxIterations < 1:
		return NewConfigError(op, "max_iterations must be positive")
	case c.MaxPoolBytes == 0:
		return NewConfigError(op, "max_pool_bytes must be positive")
	case c.ProgressInterval <= 0:
		return NewConfigError(op, "progress_interval must be positive")
	}

	p := c.Probe
	switch {
	case !IsPowerOfTwo(p.Size) || p.Size > MaxDimension:
		return NewConfigError(op, "probe.size must be a power of two within the key range")
	case p.Samples < 6 || p.Samples%2 != 0:
		// The four middle samples must sit between equally many dropped
		// ones at each end.
		return NewConfigError(op, fmt.Sprintf("probe.samples %d must be even and at least 6", p.Samples))
	case p.InitialSamples < 1:
		return NewConfigError(op, "probe.initial_samples must be at least 1")
	case p.MinAccurateTime <= 0:
		return NewConfigError(op, "probe.min_accurate_time must be positive")
	case p.Multiplier <= 0:
		return NewConfigError(op, "probe.multiplier must be positive")
	}

	d := c.Drift
	switch {
	case d.LowerTolerance <= 0 || d.LowerTolerance > 1:
		return NewConfigError(op, "drift.lower_tolerance must be in (0, 1]")
	case d.UpperTolerance < 1:
		return NewConfigError(op, "drift.upper_tolerance must be at least 1")
	case d.CalibrationInterval <= 0:
		return NewConfigError(op, "drift.calibration_interval must be positive")
	case d.BackoffInitial <= 0:
		return NewConfigError(op, "drift.backoff_initial must be positive")
	case d.BackoffLimit < 0:
		return NewConfigError(op, "drift.backoff_limit must not be negative")
	}
	return nil
}
