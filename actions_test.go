package blockbench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSizes(t *testing.T) {
	cfg := smallConfig()
	trials := DefaultSizes(&cfg)
	require.Len(t, trials, 3*2*2*2)

	counts := map[SizeKey]int{}
	for _, tr := range trials {
		assert.True(t, tr.Blocking.IsDefault())
		assert.False(t, tr.Measured())
		assert.Equal(t, cfg.MinWorkingSetSize, tr.MinWorkingSetSize)
		counts[tr.ProblemKey()]++
	}
	assert.Len(t, counts, 8)
	for key, n := range counts {
		assert.Equal(t, cfg.Repetitions, n, "%v", key)
	}
}

func TestAllPOTSizes(t *testing.T) {
	cfg := smallConfig()
	trials := AllPOTSizes(&cfg)

	// Per problem, each dimension of 16 allows one block size and each
	// dimension of 32 allows two: (1+2)^3 configurations per repetition.
	require.Len(t, trials, 3*27)

	configs := map[[2]SizeKey]int{}
	for _, tr := range trials {
		block, ok := tr.Blocking.Size()
		require.True(t, ok)
		assert.True(t, block.Fits(tr.Problem), "%v in %v", block, tr.Problem)
		assert.GreaterOrEqual(t, min(block.K, block.M, block.N), cfg.MinSize)
		configs[[2]SizeKey{tr.ProblemKey(), tr.BlockKey()}]++
	}
	assert.Len(t, configs, 27)
}

func TestLookupAction(t *testing.T) {
	assert.Equal(t, []string{ActionAllPOTSizes, ActionDefaultSizes}, ActionNames())

	a, err := LookupAction("default-sizes")
	require.NoError(t, err)
	assert.Equal(t, "BEGIN MEASUREMENTS DEFAULT SIZES", a.Marker)

	a, err = LookupAction("all-pot-sizes")
	require.NoError(t, err)
	assert.Equal(t, "BEGIN MEASUREMENTS ALL POT SIZES", a.Marker)

	_, err = LookupAction("some-sizes")
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "all-pot-sizes")
}
