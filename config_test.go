package blockbench

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blockbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1.01, cfg.Drift.UpperTolerance)
	assert.Equal(t, 0.98, cfg.Drift.LowerTolerance)
	assert.Equal(t, time.Minute, cfg.Drift.CalibrationInterval)
	assert.Equal(t, 300*time.Second, cfg.Drift.BackoffLimit)
	assert.Equal(t, 128, cfg.Probe.Size)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
min_size: 32
max_size: 256
repetitions: 5
min_accurate_time: 20ms
seed: 9
probe:
  samples: 10
drift:
  upper_tolerance: 1.02
  calibration_interval: 30s
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.MinSize)
	assert.Equal(t, 256, cfg.MaxSize)
	assert.Equal(t, 5, cfg.Repetitions)
	assert.Equal(t, 20*time.Millisecond, cfg.MinAccurateTime)
	assert.Equal(t, uint64(9), cfg.Seed)
	assert.Equal(t, 10, cfg.Probe.Samples)
	assert.Equal(t, 1.02, cfg.Drift.UpperTolerance)
	assert.Equal(t, 30*time.Second, cfg.Drift.CalibrationInterval)

	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultProbeMultiplier, cfg.Probe.Multiplier)
	assert.Equal(t, DefaultLowerTolerance, cfg.Drift.LowerTolerance)
	assert.Equal(t, time.Duration(DefaultProbeMinAccurateTime), cfg.Probe.MinAccurateTime)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, "min_size: [1, 2\n"))
	assert.True(t, IsConfigError(err))

	_, err = LoadConfig(writeConfig(t, "max_size: 24\n"))
	assert.True(t, IsConfigError(err))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min not pot", func(c *Config) { c.MinSize = 12 }},
		{"max not above min", func(c *Config) { c.MaxSize = c.MinSize }},
		{"max beyond key range", func(c *Config) { c.MaxSize = 2 * MaxDimension }},
		{"no repetitions", func(c *Config) { c.Repetitions = 0 }},
		{"zero accurate time", func(c *Config) { c.MinAccurateTime = 0 }},
		{"zero iteration cap", func(c *Config) { c.MaxIterations = 0 }},
		{"zero pool bytes", func(c *Config) { c.MaxPoolBytes = 0 }},
		{"zero progress interval", func(c *Config) { c.ProgressInterval = 0 }},
		{"probe size", func(c *Config) { c.Probe.Size = 100 }},
		{"few probe samples", func(c *Config) { c.Probe.Samples = 3 }},
		{"four probe samples trim nothing", func(c *Config) { c.Probe.Samples = 4 }},
		{"five probe samples trim one end", func(c *Config) { c.Probe.Samples = 5 }},
		{"odd probe samples", func(c *Config) { c.Probe.Samples = 9 }},
		{"no initial samples", func(c *Config) { c.Probe.InitialSamples = 0 }},
		{"probe time", func(c *Config) { c.Probe.MinAccurateTime = 0 }},
		{"multiplier", func(c *Config) { c.Probe.Multiplier = 0 }},
		{"lower above one", func(c *Config) { c.Drift.LowerTolerance = 1.1 }},
		{"upper below one", func(c *Config) { c.Drift.UpperTolerance = 0.9 }},
		{"interval", func(c *Config) { c.Drift.CalibrationInterval = 0 }},
		{"backoff start", func(c *Config) { c.Drift.BackoffInitial = 0 }},
		{"negative limit", func(c *Config) { c.Drift.BackoffLimit = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
		})
	}
}
