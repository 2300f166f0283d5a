package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LynnColeArt/blockbench"
)

func naiveGemm(op *blockbench.Operands) []float32 {
	p := op.Problem
	out := make([]float32, p.M*p.N)
	for i := 0; i < p.M; i++ {
		for j := 0; j < p.N; j++ {
			var sum float32
			for k := 0; k < p.K; k++ {
				sum += op.LHS[i*p.K+k] * op.RHS[k*p.N+j]
			}
			out[i*p.N+j] = sum
		}
	}
	return out
}

// fill uses small integers so every partial sum is exact in float32.
func fill(op *blockbench.Operands) {
	for i := range op.LHS {
		op.LHS[i] = float32(i%7 - 3)
	}
	for i := range op.RHS {
		op.RHS[i] = float32(i%5 - 2)
	}
}

func TestBlockedGEMMMatchesNaive(t *testing.T) {
	g := NewBlockedGEMMWith(8, 4, DefaultCacheSizes)
	problem := blockbench.SizeTriple{K: 32, M: 16, N: 64}

	tests := []struct {
		name  string
		block blockbench.Blocking
	}{
		{"default", blockbench.DefaultBlocking()},
		{"whole problem", blockbench.Block(problem)},
		{"unit blocks", blockbench.Block(blockbench.SizeTriple{K: 1, M: 1, N: 1})},
		{"mixed", blockbench.Block(blockbench.SizeTriple{K: 8, M: 16, N: 4})},
		{"larger than problem", blockbench.Block(blockbench.SizeTriple{K: 128, M: 128, N: 128})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := blockbench.NewOperands(problem)
			fill(op)
			want := naiveGemm(op)

			g.Multiply(op, tt.block)
			assert.Equal(t, want, op.Dst)
		})
	}
}

func TestBlockedGEMMOverwritesDst(t *testing.T) {
	g := NewBlockedGEMMWith(4, 4, DefaultCacheSizes)
	op := blockbench.NewOperands(blockbench.SizeTriple{K: 16, M: 16, N: 16})
	fill(op)
	want := naiveGemm(op)

	// Repeated calls on the same operands must not accumulate.
	for i := 0; i < 3; i++ {
		g.Multiply(op, blockbench.Block(blockbench.SizeTriple{K: 4, M: 8, N: 16}))
	}
	require.Len(t, op.Dst, 256)
	assert.Equal(t, want, op.Dst)
}

func TestBlockedGEMMAutoBlocking(t *testing.T) {
	g := NewBlockedGEMMWith(8, 4, DefaultCacheSizes)
	problem := blockbench.SizeTriple{K: 2048, M: 2048, N: 2048}
	assert.Equal(t, DefaultBlocking(problem, 8, 4, DefaultCacheSizes), g.AutoBlocking(problem))
	assert.Equal(t, 8, g.PacketSize())
}

func TestPacketSize(t *testing.T) {
	p := PacketSize()
	assert.Contains(t, []int{1, 4, 8, 16}, p)
	assert.Equal(t, p, NewBlockedGEMM().PacketSize())
}
