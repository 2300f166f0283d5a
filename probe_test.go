package blockbench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// speedKernel runs at a fixed number of GFLOPS.
func speedKernel(clock *fakeCPUClock, gflops float64) *fakeKernel {
	k := newFakeKernel(clock, 0)
	k.cost = func(p SizeTriple) time.Duration {
		return time.Duration(p.Flops() / gflops)
	}
	return k
}

func newTestProbe(clock *fakeCPUClock, k Kernel, cycles CycleCounter) *ClockProbe {
	cfg := DefaultConfig()
	timer := NewAdaptiveTimer(k, clock, &cfg, discardLogger())
	return NewClockProbe(timer, clock, cycles, cfg.Probe, discardLogger())
}

func TestClockProbeEstimate(t *testing.T) {
	clock := &fakeCPUClock{}
	kernel := speedKernel(clock, 2)
	probe := newTestProbe(clock, kernel, nil)

	got, err := probe.Measure()
	require.NoError(t, err)

	// Eight identical samples of 2 GFLOPS, four middle ones summed.
	assert.InEpsilon(t, 4*2*DefaultProbeMultiplier, got, 1e-6)
	assert.Len(t, probe.Last.Samples, DefaultProbeSamples)
	assert.InDelta(t, 0, probe.Last.Spread, 1e-6)
	assert.Zero(t, probe.Last.GHz)

	// Operands are reused: warm caches.
	assert.Len(t, kernel.seen, DefaultProbeSamples)
	for _, n := range kernel.seen {
		assert.Greater(t, n, 1)
	}
}

func TestClockProbeMonotonic(t *testing.T) {
	var last float64
	for _, speed := range []float64{0.5, 1, 2, 4, 8, 16} {
		clock := &fakeCPUClock{}
		got, err := newTestProbe(clock, speedKernel(clock, speed), nil).Measure()
		require.NoError(t, err)
		assert.Greater(t, got, last, "speed %v", speed)
		last = got
	}
}

// Each probe sample runs at its own speed; only the four middle ones count.
func TestClockProbeTrimsExtremes(t *testing.T) {
	tests := []struct {
		name   string
		speeds []float64
	}{
		// sorted: 0.01 1 2 2 2 2 3 100
		{"eight samples", []float64{100, 1, 2, 2, 2, 2, 3, 0.01}},
		// sorted: 0.01 2 2 2 2 100
		{"six samples", []float64{2, 100, 2, 0.01, 2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeCPUClock{}
			k := newFakeKernel(clock, 0)
			sample := 0
			var current *Operands
			k.cost = func(p SizeTriple) time.Duration {
				return time.Duration(p.Flops() / tt.speeds[sample%len(tt.speeds)])
			}

			cfg := DefaultConfig()
			cfg.Probe.Samples = len(tt.speeds)
			require.NoError(t, cfg.Validate())

			// Every probe trial allocates a fresh operand set. kernel.seen
			// keeps the old ones alive, so a new pointer means a new sample.
			wrapped := &sampleCounter{fakeKernel: k, onNew: func(op *Operands) {
				if current != nil && op != current {
					sample++
				}
				current = op
			}}
			timer := NewAdaptiveTimer(wrapped, clock, &cfg, discardLogger())
			probe := NewClockProbe(timer, clock, nil, cfg.Probe, discardLogger())

			got, err := probe.Measure()
			require.NoError(t, err)
			assert.Len(t, probe.Last.Samples, len(tt.speeds))
			// middle four are 2 2 2 2
			assert.InEpsilon(t, 8*DefaultProbeMultiplier, got, 1e-6)
			assert.Greater(t, probe.Last.Spread, 1.0)
		})
	}
}

type sampleCounter struct {
	*fakeKernel
	onNew func(*Operands)
}

func (s *sampleCounter) Multiply(op *Operands, b Blocking) {
	s.onNew(op)
	s.fakeKernel.Multiply(op, b)
}

type fakeCycles struct {
	clock *fakeCPUClock
	ghz   float64
}

func (c *fakeCycles) Cycles() (uint64, error) {
	return uint64(float64(c.clock.now.Nanoseconds()) * c.ghz), nil
}

func (c *fakeCycles) Close() error { return nil }

func TestClockProbeReportsGHz(t *testing.T) {
	clock := &fakeCPUClock{}
	probe := newTestProbe(clock, speedKernel(clock, 4), &fakeCycles{clock: clock, ghz: 3})

	_, err := probe.Measure()
	require.NoError(t, err)
	assert.InEpsilon(t, 3, probe.Last.GHz, 1e-6)
}

func TestEffectiveGHz(t *testing.T) {
	assert.InEpsilon(t, 2.5, EffectiveGHz(2_500_000_000, time.Second), 1e-12)
	assert.Zero(t, EffectiveGHz(0, time.Second))
	assert.Zero(t, EffectiveGHz(10, 0))
}
