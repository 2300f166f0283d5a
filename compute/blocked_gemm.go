package compute

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/LynnColeArt/blockbench"
)

// BlockedGEMM computes single-precision matrix products with explicit cache
// blocking. The product is tiled into bk x bm x bn blocks and each block
// pair is handed to the BLAS SGEMM; the block sizes are either forced by the
// caller or chosen by DefaultBlocking.
type BlockedGEMM struct {
	// mr and nr are the micro-kernel tile the default blocking assumes.
	mr, nr int
	caches CacheSizes
}

// NewBlockedGEMM creates a kernel tuned for the running CPU.
func NewBlockedGEMM() *BlockedGEMM {
	return &BlockedGEMM{
		mr:     PacketSize(),
		nr:     4,
		caches: DefaultCacheSizes,
	}
}

// NewBlockedGEMMWith creates a kernel with an explicit micro-kernel tile and
// cache hierarchy.
func NewBlockedGEMMWith(mr, nr int, caches CacheSizes) *BlockedGEMM {
	return &BlockedGEMM{mr: max(mr, 1), nr: max(nr, 1), caches: caches}
}

// PacketSize is the micro-kernel row count, equal to the SIMD width.
func (g *BlockedGEMM) PacketSize() int {
	return g.mr
}

// AutoBlocking reports the blocking Multiply uses for DefaultBlocking.
func (g *BlockedGEMM) AutoBlocking(problem blockbench.SizeTriple) blockbench.SizeTriple {
	return DefaultBlocking(problem, g.mr, g.nr, g.caches)
}

// Multiply sets op.Dst = op.LHS * op.RHS.
func (g *BlockedGEMM) Multiply(op *blockbench.Operands, block blockbench.Blocking) {
	p := op.Problem
	bs, ok := block.Size()
	if !ok {
		bs = g.AutoBlocking(p)
	}
	bk := clampBlock(bs.K, p.K)
	bm := clampBlock(bs.M, p.M)
	bn := clampBlock(bs.N, p.N)

	clear(op.Dst)

	// Row-major: LHS is M x K (stride K), RHS is K x N and Dst is M x N
	// (stride N).
	for kk := 0; kk < p.K; kk += bk {
		kb := min(bk, p.K-kk)
		for ii := 0; ii < p.M; ii += bm {
			mb := min(bm, p.M-ii)
			a := subMatrix(op.LHS, p.K, ii, kk, mb, kb)
			for jj := 0; jj < p.N; jj += bn {
				nb := min(bn, p.N-jj)
				b := subMatrix(op.RHS, p.N, kk, jj, kb, nb)
				c := subMatrix(op.Dst, p.N, ii, jj, mb, nb)
				blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, a, b, 1, c)
			}
		}
	}
}

// subMatrix views the rows x cols block at (row, col) of a row-major matrix.
func subMatrix(data []float32, stride, row, col, rows, cols int) blas32.General {
	off := row*stride + col
	return blas32.General{
		Rows:   rows,
		Cols:   cols,
		Stride: stride,
		Data:   data[off : off+(rows-1)*stride+cols],
	}
}

func clampBlock(b, dim int) int {
	return min(max(b, 1), dim)
}
