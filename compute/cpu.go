package compute

import (
	"golang.org/x/sys/cpu"
)

// packetSize is the number of float32 lanes in the widest vector register
// the CPU supports.
var packetSize int

func init() {
	packetSize = detectPacketSize()
}

func detectPacketSize() int {
	switch {
	case cpu.X86.HasAVX512F:
		return 16
	case cpu.X86.HasAVX:
		return 8
	case cpu.X86.HasSSE2, cpu.ARM64.HasASIMD:
		return 4
	}
	return 1
}

// PacketSize returns the float32 SIMD width of this CPU.
func PacketSize() int {
	return packetSize
}
