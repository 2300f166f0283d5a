package compute

import (
	"github.com/LynnColeArt/blockbench"
)

// CacheSizes are the per-level capacities the default blocking targets.
type CacheSizes struct {
	L1, L2, L3 int
}

// DefaultCacheSizes are typical of a current desktop core.
var DefaultCacheSizes = CacheSizes{
	L1: blockbench.L1CacheSize,
	L2: blockbench.L2CacheSize,
	L3: blockbench.L3CacheSize,
}

// DefaultBlocking chooses block sizes for problem the way a packed GEMM
// would: a K panel of the micro-kernel's mr x nr tile stays in L1, an
// mc x kc block of LHS stays in L2 and a kc x nc panel of RHS stays in L3.
// Every block size is a power of two between 1 and its dimension.
func DefaultBlocking(problem blockbench.SizeTriple, mr, nr int, caches CacheSizes) blockbench.SizeTriple {
	const scalar = 4 // float32

	kc := largestPOT(problem.K, func(kc int) bool {
		return kc*(mr+nr)*scalar <= caches.L1
	})
	mc := largestPOT(problem.M, func(mc int) bool {
		return mc*kc*scalar <= caches.L2
	})
	nc := largestPOT(problem.N, func(nc int) bool {
		return nc*kc*scalar <= caches.L3
	})
	return blockbench.SizeTriple{K: kc, M: mc, N: nc}
}

// largestPOT returns the largest power of two not above dim that fits,
// and at least 1.
func largestPOT(dim int, fits func(int) bool) int {
	x := 1
	for x*2 <= dim && fits(x*2) {
		x *= 2
	}
	return x
}
