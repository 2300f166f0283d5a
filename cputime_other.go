//go:build !unix

package blockbench

import "time"

var processStart = time.Now()

// ProcessCPUClock falls back to wall time where no CPU-time clock is
// available. Timings then include time spent descheduled.
type ProcessCPUClock struct{}

// CPUTime returns wall time since process start.
func (ProcessCPUClock) CPUTime() time.Duration {
	return time.Since(processStart)
}
