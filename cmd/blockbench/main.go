// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command blockbench measures the throughput of a cache-blocked SGEMM over a
// grid of power-of-two problem and block sizes, guarding every measurement
// against clock speed drift.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/blockbench"
	"github.com/LynnColeArt/blockbench/compute"
)

const workingSetHelp = `Set the minimum working set size to N bytes.
This is rounded up as needed to a multiple of the operand set size.
A larger working set lowers the chance of a warm cache.
The default value 0 means use a large enough working set to likely
outsize caches. A value of 1 (that is, 1 byte) means don't do anything
to avoid warm caches.`

type options struct {
	configPath        string
	minWorkingSetSize uint64
	seed              uint64
	logDir            string
	metricsFile       string
	verbose           bool
}

func main() {
	// CPU time must equal single-threaded kernel time.
	runtime.GOMAXPROCS(1)

	start := time.Now()
	root := newRootCommand(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		switch {
		case blockbench.IsConfigError(err):
			fmt.Fprintf(os.Stderr, "%v\n\n", err)
			root.SetOut(os.Stderr)
			_ = root.Usage()
		case blockbench.IsUnstableError(err):
			fmt.Fprintln(os.Stderr, blockbench.StabilityAdvice)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Finished in %s\n", blockbench.HumanDuration(time.Since(start)))
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "blockbench <action> [options...]",
		Short: "Benchmark SGEMM blocking sizes",
		Long: `blockbench measures matrix-product throughput for power-of-two problem
sizes, either with every block size that fits (all-pot-sizes) or with the
kernel's default blocking (default-sizes). Results are printed to stdout
as "<problem-key> <block-key|default(k, m, n)> <gflops>" lines.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return blockbench.NewConfigError("blockbench", "missing action")
			}
			_, err := blockbench.LookupAction(args[0])
			return err
		},
	}
	if v, _ := blockbench.Version(); v != "" {
		root.Version = v
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return blockbench.NewConfigError("blockbench", err.Error())
	})

	pf := root.PersistentFlags()
	pf.Uint64Var(&opts.minWorkingSetSize, "min-working-set-size", 0, workingSetHelp)
	pf.StringVar(&opts.configPath, "config", "", "YAML file overriding the measurement parameters")
	pf.Uint64Var(&opts.seed, "seed", 0, "seed for the trial shuffle (0 seeds from the clock)")
	pf.StringVar(&opts.logDir, "log-dir", "", "write a JSON-lines journal of the run into this directory")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "write run metrics to this file in Prometheus text format")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log every trial and calibration")

	for _, name := range blockbench.ActionNames() {
		root.AddCommand(newActionCommand(name, opts))
	}
	return root
}

func newActionCommand(name string, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: actionSummary(name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(cmd, name, opts)
		},
	}
}

func actionSummary(name string) string {
	switch name {
	case blockbench.ActionAllPOTSizes:
		return "Measure every problem size with every block size that fits"
	case blockbench.ActionDefaultSizes:
		return "Measure every problem size with the default blocking"
	}
	return ""
}

func runAction(cmd *cobra.Command, name string, opts *options) error {
	action, err := blockbench.LookupAction(name)
	if err != nil {
		return err
	}

	cfg, err := blockbench.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("min-working-set-size") {
		cfg.MinWorkingSetSize = opts.minWorkingSetSize
	}
	if flags.Changed("seed") {
		cfg.Seed = opts.seed
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	logger := newLogger(stderr, opts.verbose)
	slog.SetDefault(logger)

	kernel := compute.NewBlockedGEMM()

	var cycles blockbench.CycleCounter
	if c, err := blockbench.OpenCycleCounter(); err != nil {
		logger.Debug("cycle counter unavailable", slog.String("error", err.Error()))
	} else {
		cycles = c
		defer c.Close()
	}

	h := blockbench.NewHarness(&cfg, kernel, blockbench.ProcessCPUClock{}, cycles, logger)
	h.Progress = blockbench.NewProgress(stderr, logger, cfg.ProgressInterval)

	if opts.logDir != "" {
		j, err := blockbench.OpenJournal(opts.logDir, action.Name, h.RunID)
		if err != nil {
			return err
		}
		h.Journal = j
		defer func() {
			if err := j.Close(); err != nil {
				logger.Warn("journal incomplete", slog.String("path", j.Path()), slog.String("error", err.Error()))
			}
		}()
		logger.Info("writing journal", slog.String("path", j.Path()))
	}

	if err := blockbench.WriteHeader(stdout, blockbench.DescribeHost(kernel.PacketSize()), &cfg); err != nil {
		return err
	}

	report, runErr := h.Run(action)

	// Metrics are worth keeping even for a run that gave up.
	if opts.metricsFile != "" {
		if err := h.Metrics.WriteTextfile(opts.metricsFile); err != nil {
			logger.Warn("failed to write metrics", slog.String("path", opts.metricsFile), slog.String("error", err.Error()))
		}
	}
	if runErr != nil {
		return runErr
	}

	_, err = report.WriteTo(stdout)
	return err
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
