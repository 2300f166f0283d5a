package blockbench

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// TrialRunner measures a single trial. *AdaptiveTimer is the production
// implementation.
type TrialRunner interface {
	Run(t *Trial) error
}

// RunState is everything the scheduler mutates during a run.
type RunState struct {
	Trials []Trial
	// Checkpoint is the index of the first trial not yet verified by a
	// calibration taken after it ran.
	Checkpoint int
	// BestClockSpeed is the highest clock probe estimate accepted so far.
	BestClockSpeed float64
	Start          time.Time
	Seed           uint64
}

// Done reports whether every trial has been measured and verified.
func (s *RunState) Done() bool {
	return s.Checkpoint == len(s.Trials)
}

// Scheduler runs a list of trials while watching for clock speed drift.
//
// A calibration is taken when a pass starts, whenever the calibration
// interval has elapsed, and after the last trial. A calibration faster than
// tolerated invalidates every trial measured so far and restarts the run
// from the first trial. A slower one backs off until the clock recovers and
// then reruns only the trials since the last good calibration.
type Scheduler struct {
	runner         TrialRunner
	probe          SpeedProbe
	clock          WallClock
	drift          DriftConfig
	initialSamples int
	seed           uint64

	logger   *slog.Logger
	metrics  *Metrics
	journal  *Journal
	progress *Progress
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithWallClock replaces the system wall clock.
func WithWallClock(c WallClock) SchedulerOption {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// WithMetrics records the run into m.
func WithMetrics(m *Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// WithJournal records the run into j.
func WithJournal(j *Journal) SchedulerOption {
	return func(s *Scheduler) { s.journal = j }
}

// WithProgress reports progress through p.
func WithProgress(p *Progress) SchedulerOption {
	return func(s *Scheduler) { s.progress = p }
}

// NewScheduler creates a scheduler measuring trials with runner and
// calibrating with probe.
func NewScheduler(runner TrialRunner, probe SpeedProbe, cfg *Config, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		runner:         runner,
		probe:          probe,
		clock:          SystemWallClock{},
		drift:          cfg.Drift,
		initialSamples: cfg.Probe.InitialSamples,
		seed:           cfg.Seed,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s
}

// Run shuffles trials, then measures all of them. On success every trial in
// the returned state has been measured exactly once since the last rewind
// that covered it.
func (s *Scheduler) Run(trials []Trial) (*RunState, error) {
	state := &RunState{Trials: trials, Seed: s.seed}
	if state.Seed == 0 {
		state.Seed = uint64(s.clock.Now().UnixNano())
	}

	// Mixing cheap and expensive trials keeps the ETA honest, and a
	// disturbance then hits a random subset of each configuration's
	// repetitions instead of all of them.
	rng := rand.New(rand.NewPCG(state.Seed, state.Seed>>32|1))
	rng.Shuffle(len(trials), func(i, j int) {
		trials[i], trials[j] = trials[j], trials[i]
	})
	s.logger.Info("scheduling trials",
		slog.Int("trials", len(trials)),
		slog.Uint64("seed", state.Seed))

	best, err := s.baseline()
	if err != nil {
		return state, err
	}
	state.BestClockSpeed = best
	state.Start = s.clock.Now()

	for !state.Done() {
		if err := s.pass(state); err != nil {
			s.progress.Clear()
			return state, err
		}
	}
	s.progress.Clear()
	return state, nil
}

// baseline keeps the best of a few probes: a higher reading is always
// closer to the unthrottled speed.
func (s *Scheduler) baseline() (float64, error) {
	best := 0.0
	for i := 0; i < s.initialSamples; i++ {
		speed, err := s.calibrate(0)
		if err != nil {
			return 0, err
		}
		best = max(best, speed)
	}
	s.logger.Info("baseline clock speed", slog.Float64("estimate", best))
	return best, nil
}

// pass runs trials from the checkpoint until the run completes or a
// calibration asks for a rewind.
func (s *Scheduler) pass(state *RunState) error {
	total := len(state.Trials)
	index := state.Checkpoint
	var lastCalibration time.Time

	for {
		now := s.clock.Now()
		done := float64(index) / float64(total)

		if index == total || now.Sub(lastCalibration) >= s.drift.CalibrationInterval {
			lastCalibration = now
			current, err := s.calibrate(index)
			if err != nil {
				return err
			}

			// Only 1% faster is tolerated so the baseline stays accurate;
			// this mostly fires early in a run.
			if current > s.drift.UpperTolerance*state.BestClockSpeed {
				if index > 0 {
					s.logger.Warn("restarting because clock speed increased",
						slog.String("done", percent(done)),
						slog.Float64("ratio", current/state.BestClockSpeed))
				}
				s.rewind(state, 0, index, RestartClockFaster)
				state.BestClockSpeed = current
				return nil
			}

			if current < s.drift.LowerTolerance*state.BestClockSpeed {
				s.logger.Warn("clock speed dropped",
					slog.String("done", percent(done)),
					slog.Float64("ratio", current/state.BestClockSpeed))
				if err := s.waitForRecovery(state, current); err != nil {
					return err
				}
				s.logger.Info("redoing trials measured while clock speed was low",
					slog.String("redo", percent(float64(index-state.Checkpoint)/float64(total))))
				s.rewind(state, state.Checkpoint, index, RestartClockSlower)
				return nil
			}

			// Nothing run so far will need rerunning.
			state.Checkpoint = index
		}

		if index == total {
			return nil
		}

		s.progress.Update(now, state.Start, done)

		t := &state.Trials[index]
		if err := s.runner.Run(t); err != nil {
			return err
		}
		s.metrics.TrialsMeasured.Inc()
		s.metrics.TrialGFLOPS.Observe(t.GFlops)
		s.journal.Record(JournalEntry{
			Kind:       EntryTrial,
			Index:      index,
			Problem:    t.ProblemKey().String(),
			Block:      blockLabel(t),
			GFlops:     t.GFlops,
			Iterations: t.Iterations,
		})
		index++
	}
}

// waitForRecovery sleeps with doubling intervals, probing after each sleep,
// until the clock is back within tolerance or the sleep budget is spent.
func (s *Scheduler) waitForRecovery(state *RunState, current float64) error {
	b := newSlowClockBackoff(s.drift)
	for current < s.drift.LowerTolerance*state.BestClockSpeed {
		if b.exhausted() {
			s.logger.Error("clock speed did not recover",
				slog.Duration("slept", b.slept),
				slog.Float64("ratio", current/state.BestClockSpeed))
			return NewUnstableError("Scheduler.waitForRecovery", fmt.Sprintf(
				"clock speed still %.3g times the best seen after sleeping %v",
				current/state.BestClockSpeed, b.slept))
		}
		d := b.next()
		s.logger.Info("sleeping", slog.Duration("duration", d))
		s.metrics.BackoffSeconds.Add(d.Seconds())
		s.journal.Record(JournalEntry{
			Kind:  EntryBackoff,
			Index: state.Checkpoint,
			Ratio: current / state.BestClockSpeed,
			Sleep: d,
		})
		s.clock.Sleep(d)

		var err error
		if current, err = s.calibrate(state.Checkpoint); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) calibrate(index int) (float64, error) {
	speed, err := s.probe.Measure()
	if err != nil {
		return 0, err
	}
	s.metrics.Calibrations.Inc()
	s.metrics.ClockSpeed.Set(speed)

	entry := JournalEntry{Kind: EntryCalibration, Index: index, ClockSpeed: speed}
	if r, ok := s.probe.(CalibrationReporter); ok {
		entry.GHz = r.LastCalibration().GHz
	}
	s.journal.Record(entry)
	return speed, nil
}

// rewind discards trials [from, to) and moves the checkpoint back to from.
func (s *Scheduler) rewind(state *RunState, from, to int, reason string) {
	discarded := 0
	for i := from; i < to; i++ {
		if state.Trials[i].Measured() {
			state.Trials[i].discard()
			discarded++
		}
	}
	state.Checkpoint = from
	s.metrics.Restarts.WithLabelValues(reason).Inc()
	s.metrics.TrialsDiscarded.Add(float64(discarded))
	s.journal.Record(JournalEntry{Kind: EntryRestart, Index: from, Reason: reason})
}

func blockLabel(t *Trial) string {
	if t.Blocking.IsDefault() {
		return "default"
	}
	return t.BlockKey().String()
}

func percent(f float64) string {
	return fmt.Sprintf("%.4g %%", 100*f)
}
