package blockbench

import (
	"cmp"
	"slices"
)

// Reduction of repeated measurements to a best-observed table.
//
// Every configuration is measured several times on purpose, so that at least
// one sample is likely to be free of noise. Noise only ever slows a trial
// down, hence the best sample is the one kept.

// compareTrials orders by problem key, then block key (default blocking
// first), then by descending throughput.
func compareTrials(a, b Trial) int {
	if c := cmp.Compare(a.ProblemKey(), b.ProblemKey()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.BlockKey(), b.BlockKey()); c != 0 {
		return c
	}
	// A forced 1x1x1 block also has key 0; keep it apart from default.
	if a.Blocking.IsDefault() != b.Blocking.IsDefault() {
		if a.Blocking.IsDefault() {
			return -1
		}
		return 1
	}
	return cmp.Compare(b.GFlops, a.GFlops)
}

// Reduce sorts trials and keeps the fastest trial of every configuration.
// trials is sorted in place; the result shares its backing array.
func Reduce(trials []Trial) []Trial {
	slices.SortStableFunc(trials, compareTrials)
	return slices.CompactFunc(trials, func(a, b Trial) bool {
		return sameConfiguration(&a, &b)
	})
}
