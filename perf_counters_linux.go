//go:build linux

// Package blockbench provides the Linux perf_event cycle counter
package blockbench

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// PerfCycleCounter reads PERF_COUNT_HW_CPU_CYCLES for the whole process,
// user space only.
type PerfCycleCounter struct {
	fd int
}

// OpenCycleCounter opens and enables a cycle counter for this process.
func OpenCycleCounter() (CycleCounter, error) {
	attr := unix.PerfEventAttr{
		Type:   unix.PERF_TYPE_HARDWARE,
		Config: unix.PERF_COUNT_HW_CPU_CYCLES,
		Bits:   unix.PerfBitDisabled | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv | unix.PerfBitInherit,
	}
	attr.Size = uint32(unsafe.Sizeof(attr))

	// Monitor current process on any CPU
	fd, err := unix.PerfEventOpen(&attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("%w: perf_event_open: %v", ErrCountersUnavailable, err)
	}
	if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: reset: %v", ErrCountersUnavailable, err)
	}
	if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: enable: %v", ErrCountersUnavailable, err)
	}
	return &PerfCycleCounter{fd: fd}, nil
}

// Cycles reads the counter.
func (c *PerfCycleCounter) Cycles() (uint64, error) {
	var buf [8]byte
	n, err := unix.Read(c.fd, buf[:])
	if err != nil {
		return 0, err
	}
	if n != len(buf) {
		return 0, fmt.Errorf("short perf read: %d bytes", n)
	}
	return binary.NativeEndian.Uint64(buf[:]), nil
}

// Close disables and releases the counter.
func (c *PerfCycleCounter) Close() error {
	unix.IoctlSetInt(c.fd, unix.PERF_EVENT_IOC_DISABLE, 0)
	return unix.Close(c.fd)
}
