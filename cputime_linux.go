//go:build linux

package blockbench

import (
	"time"

	"golang.org/x/sys/unix"
)

// ProcessCPUClock reads CLOCK_PROCESS_CPUTIME_ID.
type ProcessCPUClock struct{}

// CPUTime returns the CPU time consumed by all threads of the process.
func (ProcessCPUClock) CPUTime() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_PROCESS_CPUTIME_ID, &ts); err != nil {
		return rusageCPUTime()
	}
	return time.Duration(ts.Nano())
}

func rusageCPUTime() time.Duration {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	return time.Duration(ru.Utime.Nano() + ru.Stime.Nano())
}
