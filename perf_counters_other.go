//go:build !linux

// Package blockbench provides cycle counter stubs for non-Linux platforms
package blockbench

// OpenCycleCounter always fails on non-Linux platforms.
func OpenCycleCounter() (CycleCounter, error) {
	return nil, ErrCountersUnavailable
}
