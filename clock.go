package blockbench

import "time"

// CPUClock reads the CPU time consumed by the process. Trial timings use it
// so that time spent descheduled does not count against the kernel.
type CPUClock interface {
	// CPUTime returns process CPU time since an arbitrary origin.
	CPUTime() time.Duration
}

// WallClock is real elapsed time. Calibration cadence, progress and backoff
// sleeps are wall-clock based.
type WallClock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemWallClock is the WallClock of the running machine.
type SystemWallClock struct{}

// Now returns the current time.
func (SystemWallClock) Now() time.Time { return time.Now() }

// Sleep blocks for d.
func (SystemWallClock) Sleep(d time.Duration) { time.Sleep(d) }
