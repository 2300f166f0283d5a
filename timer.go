package blockbench

import (
	"fmt"
	"log/slog"
	"math/bits"
	"runtime"

	"github.com/dustin/go-humanize"
)

// AdaptiveTimer measures one trial at a time. It repeats the product in
// doubling batches until a batch takes at least the trial's minimum
// accurate time, cycling through a pool of operand sets large enough to
// defeat the caches.
type AdaptiveTimer struct {
	kernel        Kernel
	clock         CPUClock
	maxIterations int64
	maxPoolBytes  uint64
	logger        *slog.Logger
}

// NewAdaptiveTimer creates a timer running kernel and reading clock. A nil
// logger uses slog.Default().
func NewAdaptiveTimer(kernel Kernel, clock CPUClock, cfg *Config, logger *slog.Logger) *AdaptiveTimer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdaptiveTimer{
		kernel:        kernel,
		clock:         clock,
		maxIterations: cfg.MaxIterations,
		maxPoolBytes:  cfg.MaxPoolBytes,
		logger:        logger,
	}
}

// Kernel returns the kernel under test.
func (a *AdaptiveTimer) Kernel() Kernel {
	return a.kernel
}

// Run measures t and stores its throughput in t.GFlops.
func (a *AdaptiveTimer) Run(t *Trial) error {
	count, err := a.poolSize(t)
	if err != nil {
		return err
	}
	pool, err := allocPool(t.Problem, count)
	if err != nil {
		return err
	}

	minTime := t.MinAccurateTime
	if minTime <= 0 {
		minTime = DefaultMinAccurateTime
	}

	iters := int64(1)
	next := 0
	for {
		start := a.clock.CPUTime()
		for i := int64(0); i < iters; i++ {
			a.kernel.Multiply(pool[next], t.Blocking)
			next++
			if next == len(pool) {
				next = 0
			}
		}
		elapsed := a.clock.CPUTime() - start

		if elapsed >= minTime {
			perIter := elapsed.Seconds() / float64(iters)
			t.GFlops = 1e-9 * t.Problem.Flops() / perIter
			t.Iterations = iters
			break
		}
		if iters > a.maxIterations/2 {
			return NewInfeasibleError("AdaptiveTimer.Run", fmt.Sprintf(
				"problem %v still under %v after %d iterations", t.Problem, minTime, iters))
		}
		iters *= 2
	}

	a.logger.Debug("trial measured",
		slog.String("problem", t.ProblemKey().String()),
		slog.String("block", t.BlockKey().String()),
		slog.Int64("iterations", t.Iterations),
		slog.Int("pool", count),
		slog.String("working_set", humanize.IBytes(uint64(count)*OperandBytes(t.Problem))),
		slog.Float64("gflops", t.GFlops))
	return nil
}

// poolSize returns how many operand sets the trial cycles through: enough
// that together they are larger than the working-set size.
func (a *AdaptiveTimer) poolSize(t *Trial) (int, error) {
	const op = "AdaptiveTimer.poolSize"
	workingSet := t.MinWorkingSetSize
	if workingSet == 0 {
		workingSet = UnlikelyLargeCacheSize
	}
	each := OperandBytes(t.Problem)
	count := 1 + workingSet/each

	hi, total := bits.Mul64(count, each)
	if hi != 0 || total > a.maxPoolBytes {
		return 0, NewMemoryError(op, fmt.Sprintf("operand pool of %d x %s exceeds limit %s",
			count, humanize.IBytes(each), humanize.IBytes(a.maxPoolBytes)), nil)
	}
	return int(count), nil
}

func allocPool(problem SizeTriple, count int) (pool []*Operands, err error) {
	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(runtime.Error)
			if !ok {
				panic(r)
			}
			pool = nil
			err = NewMemoryError("allocPool", fmt.Sprintf("cannot allocate %d operand sets", count), re)
		}
	}()

	pool = make([]*Operands, count)
	for i := range pool {
		pool[i] = NewOperands(problem)
	}
	return pool, nil
}
