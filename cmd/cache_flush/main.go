// Command cache_flush shows how much warm caches inflate a measurement: it
// times one problem size reusing a single operand set, then cycling through
// a pool large enough to flush the caches.
package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/LynnColeArt/blockbench"
	"github.com/LynnColeArt/blockbench/compute"
)

func main() {
	runtime.GOMAXPROCS(1)

	if err := newRootCommand(compute.NewBlockedGEMM(), blockbench.ProcessCPUClock{}).Execute(); err != nil {
		log.Fatal(err)
	}
}

// flushReport is the outcome of one warm versus flushed comparison.
type flushReport struct {
	Problem blockbench.SizeTriple
	Warm    blockbench.Trial
	Flushed blockbench.Trial
}

// Inflation is how much faster the warm run was, in percent.
func (r *flushReport) Inflation() float64 {
	return 100 * (r.Warm.GFlops/r.Flushed.GFlops - 1)
}

func (r *flushReport) write(w io.Writer) {
	fmt.Fprintf(w, "problem %v, operand set %s\n", r.Problem, humanize.IBytes(blockbench.OperandBytes(r.Problem)))
	for _, tc := range []struct {
		name string
		t    *blockbench.Trial
	}{{"warm", &r.Warm}, {"flushed", &r.Flushed}} {
		fmt.Fprintf(w, "%-8s %10.4g GFLOPS (%d iterations)\n", tc.name, tc.t.GFlops, tc.t.Iterations)
	}
	fmt.Fprintf(w, "warm caches inflate throughput by %.1f%%\n", r.Inflation())
}

func measure(timer *blockbench.AdaptiveTimer, problem blockbench.SizeTriple, workingSet uint64, minTime time.Duration) (*flushReport, error) {
	r := &flushReport{
		Problem: problem,
		Warm:    blockbench.Trial{Problem: problem, MinWorkingSetSize: 1, MinAccurateTime: minTime},
		Flushed: blockbench.Trial{Problem: problem, MinWorkingSetSize: workingSet, MinAccurateTime: minTime},
	}
	if err := timer.Run(&r.Warm); err != nil {
		return nil, err
	}
	if err := timer.Run(&r.Flushed); err != nil {
		return nil, err
	}
	return r, nil
}

func newRootCommand(kernel blockbench.Kernel, clock blockbench.CPUClock) *cobra.Command {
	var k, m, n int
	var workingSet uint64
	var minTime time.Duration
	cmd := &cobra.Command{
		Use:           "cache_flush",
		Short:         "Compare warm-cache and cache-flushed SGEMM throughput",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			problem, err := blockbench.NewSizeTriple(k, m, n)
			if err != nil {
				return err
			}
			cfg := blockbench.DefaultConfig()
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			timer := blockbench.NewAdaptiveTimer(kernel, clock, &cfg, logger)

			report, err := measure(timer, problem, workingSet, minTime)
			if err != nil {
				return err
			}
			report.write(cmd.OutOrStdout())
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&k, "k", 256, "inner dimension")
	f.IntVar(&m, "m", 256, "rows of the result")
	f.IntVar(&n, "n", 256, "columns of the result")
	f.Uint64Var(&workingSet, "working-set", 0, "bytes cycled through for the flushed run (0 outsizes caches)")
	f.DurationVar(&minTime, "min-time", blockbench.DefaultMinAccurateTime, "minimum CPU time per measured batch")
	return cmd
}
