package blockbench

import (
	"bufio"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Harness runs an action end to end: generate trials, measure them under
// drift control, reduce to the best result per configuration.
type Harness struct {
	RunID  uuid.UUID
	Config *Config
	Kernel Kernel

	Timer TrialRunner
	Probe SpeedProbe
	Clock WallClock

	Logger   *slog.Logger
	Metrics  *Metrics
	Journal  *Journal
	Progress *Progress
}

// NewHarness wires the adaptive timer and clock probe around kernel. cycles
// may be nil.
func NewHarness(cfg *Config, kernel Kernel, clock CPUClock, cycles CycleCounter, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.Default()
	}
	timer := NewAdaptiveTimer(kernel, clock, cfg, logger)
	return &Harness{
		RunID:   uuid.New(),
		Config:  cfg,
		Kernel:  kernel,
		Timer:   timer,
		Probe:   NewClockProbe(timer, clock, cycles, cfg.Probe, logger),
		Clock:   SystemWallClock{},
		Logger:  logger,
		Metrics: NewMetrics(),
	}
}

// Report is the outcome of one run.
type Report struct {
	RunID  uuid.UUID
	Action Action
	Seed   uint64
	// Raw is the number of trials generated, repetitions included.
	Raw     int
	Results []Result
	Elapsed time.Duration
}

// Run measures every trial of action.
func (h *Harness) Run(action Action) (*Report, error) {
	start := h.Clock.Now()
	trials := action.Generate(h.Config)
	h.Logger.Info("starting run",
		slog.String("run_id", h.RunID.String()),
		slog.String("action", action.Name),
		slog.Int("trials", len(trials)))

	sched := NewScheduler(h.Timer, h.Probe, h.Config,
		WithWallClock(h.Clock),
		WithLogger(h.Logger),
		WithMetrics(h.Metrics),
		WithJournal(h.Journal),
		WithProgress(h.Progress))
	state, err := sched.Run(trials)
	if err != nil {
		return nil, err
	}

	best := Reduce(state.Trials)
	report := &Report{
		RunID:   h.RunID,
		Action:  action,
		Seed:    state.Seed,
		Raw:     len(trials),
		Results: make([]Result, len(best)),
	}
	for i := range best {
		report.Results[i] = best[i].Result(h.Kernel)
	}
	report.Elapsed = h.Clock.Now().Sub(start)
	h.Logger.Info("run complete",
		slog.Int("results", len(report.Results)),
		slog.Duration("elapsed", report.Elapsed))
	return report, nil
}

// WriteTo prints the action marker followed by one line per result.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	bw.WriteString(r.Action.Marker)
	bw.WriteByte('\n')
	for _, res := range r.Results {
		bw.WriteString(res.String())
		bw.WriteByte('\n')
	}
	err := bw.Flush()
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
