//go:build unix && !linux

package blockbench

import (
	"time"

	"golang.org/x/sys/unix"
)

// ProcessCPUClock reads user plus system time from getrusage.
type ProcessCPUClock struct{}

// CPUTime returns the CPU time consumed by the process.
func (ProcessCPUClock) CPUTime() time.Duration {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	return time.Duration(ru.Utime.Nano() + ru.Stime.Nano())
}
