package blockbench

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"unsafe"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/cpu"
)

// HostInfo describes the machine and kernel build a run was measured on. It
// is printed ahead of the results so tables from different hosts can be
// told apart; it plays no part in the measurement.
type HostInfo struct {
	// CPUInfo is /proc/cpuinfo where available, otherwise a feature list.
	CPUInfo     string
	CPUInfoFrom string
	PointerBits int
	ScalarType  string
	// PacketSize is the number of scalars per SIMD register the kernel
	// is built around.
	PacketSize int
}

// DescribeHost collects host information. packetSize comes from the kernel.
func DescribeHost(packetSize int) HostInfo {
	h := HostInfo{
		PointerBits: 8 * int(unsafe.Sizeof(uintptr(0))),
		ScalarType:  "float",
		PacketSize:  packetSize,
	}
	if runtime.GOOS == "linux" {
		if data, err := os.ReadFile("/proc/cpuinfo"); err == nil {
			h.CPUInfo = string(data)
			h.CPUInfoFrom = "contents of /proc/cpuinfo"
			return h
		}
	}
	h.CPUInfo = strings.Join(cpuFeatureNames(), " ") + "\n"
	h.CPUInfoFrom = fmt.Sprintf("CPU features (%s/%s)", runtime.GOOS, runtime.GOARCH)
	return h
}

// cpuFeatureNames lists the SIMD features that matter for a float32 GEMM.
func cpuFeatureNames() []string {
	var names []string
	add := func(ok bool, name string) {
		if ok {
			names = append(names, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE2, "sse2")
		add(cpu.X86.HasSSE41, "sse4.1")
		add(cpu.X86.HasSSE42, "sse4.2")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasFMA, "fma")
		add(cpu.X86.HasAVX512F, "avx512f")
		add(cpu.X86.HasAVX512DQ, "avx512dq")
		add(cpu.X86.HasAVX512BW, "avx512bw")
		add(cpu.X86.HasAVX512VL, "avx512vl")
	case "arm64":
		add(cpu.ARM64.HasFP, "fp")
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasFPHP, "fphp")
		add(cpu.ARM64.HasASIMDHP, "asimdhp")
		add(cpu.ARM64.HasSVE, "sve")
	}
	if len(names) == 0 {
		names = append(names, "none detected")
	}
	return names
}

// WriteHeader prints the host description and run parameters.
func WriteHeader(w io.Writer, h HostInfo, cfg *Config) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s:\n", h.CPUInfoFrom)
	bw.WriteString(h.CPUInfo)
	bw.WriteString("\n")

	fmt.Fprintln(bw, "benchmark parameters:")
	if v, _ := Version(); v != "" {
		fmt.Fprintf(bw, "blockbench version: %s\n", v)
	}
	if v := gonumVersion(); v != "" {
		fmt.Fprintf(bw, "gonum version: %s\n", v)
	}
	fmt.Fprintf(bw, "pointer size: %d bits\n", h.PointerBits)
	fmt.Fprintf(bw, "scalar type: %s\n", h.ScalarType)
	fmt.Fprintf(bw, "packet size: %d\n", h.PacketSize)
	fmt.Fprintf(bw, "minsize = %d\n", cfg.MinSize)
	fmt.Fprintf(bw, "maxsize = %d\n", cfg.MaxSize)
	fmt.Fprintf(bw, "measurement_repetitions = %d\n", cfg.Repetitions)
	fmt.Fprintf(bw, "min_accurate_time = %s\n", strconv.FormatFloat(cfg.MinAccurateTime.Seconds(), 'g', 4, 64))
	fmt.Fprintf(bw, "min_working_set_size = %d", cfg.MinWorkingSetSize)
	if cfg.MinWorkingSetSize == 0 {
		bw.WriteString(" (try to outsize caches)")
	} else {
		fmt.Fprintf(bw, " (%s)", humanize.IBytes(cfg.MinWorkingSetSize))
	}
	bw.WriteString("\n\n")
	return bw.Flush()
}
