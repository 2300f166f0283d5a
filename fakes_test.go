package blockbench

import (
	"io"
	"log/slog"
	"time"
)

// Test doubles shared by the package tests. Nothing here sleeps or reads a
// real clock.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCPUClock struct {
	now time.Duration
}

func (c *fakeCPUClock) CPUTime() time.Duration { return c.now }

// fakeKernel charges cost(problem) of CPU time per call and does no work.
type fakeKernel struct {
	clock *fakeCPUClock
	cost  func(problem SizeTriple) time.Duration
	calls int
	seen  map[*Operands]int
}

func newFakeKernel(clock *fakeCPUClock, perCall time.Duration) *fakeKernel {
	return &fakeKernel{
		clock: clock,
		cost:  func(SizeTriple) time.Duration { return perCall },
		seen:  make(map[*Operands]int),
	}
}

func (k *fakeKernel) Multiply(op *Operands, _ Blocking) {
	k.calls++
	k.seen[op]++
	k.clock.now += k.cost(op.Problem)
}

func (k *fakeKernel) AutoBlocking(problem SizeTriple) SizeTriple {
	return SizeTriple{K: min(problem.K, 8), M: min(problem.M, 4), N: min(problem.N, 2)}
}

type fakeWallClock struct {
	now   time.Time
	slept []time.Duration
}

func newFakeWallClock() *fakeWallClock {
	return &fakeWallClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeWallClock) Now() time.Time { return c.now }

func (c *fakeWallClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

func (c *fakeWallClock) totalSlept() time.Duration {
	var total time.Duration
	for _, d := range c.slept {
		total += d
	}
	return total
}

// scriptedProbe returns readings in order, then steady forever.
type scriptedProbe struct {
	readings []float64
	steady   float64
	calls    int
}

func (p *scriptedProbe) Measure() (float64, error) {
	p.calls++
	if len(p.readings) > 0 {
		r := p.readings[0]
		p.readings = p.readings[1:]
		return r, nil
	}
	return p.steady, nil
}

// fakeRunner measures instantly and advances wall time by step per trial.
type fakeRunner struct {
	wall *fakeWallClock
	step time.Duration
	runs int
	err  error
}

func (r *fakeRunner) Run(t *Trial) error {
	if r.err != nil {
		return r.err
	}
	r.runs++
	r.wall.now = r.wall.now.Add(r.step)
	t.GFlops = float64(t.ProblemKey()) + float64(r.runs)/1000
	t.Iterations = 1
	return nil
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.MinSize = 16
	cfg.MaxSize = 32
	cfg.Seed = 42
	cfg.MinWorkingSetSize = 1
	return cfg
}
