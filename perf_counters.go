// Package blockbench hardware cycle counting used to annotate clock probes
package blockbench

import (
	"errors"
	"time"
)

// ErrCountersUnavailable is returned where no hardware counters can be read.
var ErrCountersUnavailable = errors.New("hardware cycle counter unavailable")

// CycleCounter counts CPU cycles spent in user space by this process.
type CycleCounter interface {
	// Cycles returns the running cycle count.
	Cycles() (uint64, error)
	Close() error
}

// EffectiveGHz converts a cycle delta over a CPU-time span into a clock
// rate. It returns 0 when either input is empty.
func EffectiveGHz(cycles uint64, cpu time.Duration) float64 {
	if cycles == 0 || cpu <= 0 {
		return 0
	}
	return float64(cycles) / float64(cpu.Nanoseconds())
}
