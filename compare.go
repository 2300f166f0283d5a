package blockbench

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
)

// MarkerPrefix starts the line separating a run's header from its results.
const MarkerPrefix = "BEGIN MEASUREMENTS"

// ReadResults parses the result lines of a saved run. Everything up to and
// including the marker line is skipped; blank lines are ignored.
func ReadResults(r io.Reader) ([]Result, error) {
	var results []Result
	inTable := false
	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, MarkerPrefix) {
			inTable = true
			continue
		}
		if !inTable || line == "" {
			continue
		}
		res, err := ParseResultLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		results = append(results, res)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !inTable {
		return nil, NewInvalidArgError("ReadResults", "no line starting with "+MarkerPrefix)
	}
	return results, nil
}

// BlockingComparison sets the fastest forced blocking of one problem size
// against the kernel's default blocking.
type BlockingComparison struct {
	Problem SizeTriple
	Default *Result
	Best    *Result
}

// Speedup is Best over Default throughput. ok is false unless both exist.
func (c *BlockingComparison) Speedup() (speedup float64, ok bool) {
	if c.Default == nil || c.Best == nil || c.Default.GFlops == 0 {
		return 0, false
	}
	return c.Best.GFlops / c.Default.GFlops, true
}

// CompareBlockings groups results by problem size, ordered by problem key.
// Throughputs are only comparable when they come from the same machine
// under the same conditions.
func CompareBlockings(results []Result) []BlockingComparison {
	byKey := map[SizeKey]*BlockingComparison{}
	for i := range results {
		r := &results[i]
		c, ok := byKey[r.ProblemKey]
		if !ok {
			c = &BlockingComparison{Problem: r.ProblemKey.Decode()}
			byKey[r.ProblemKey] = c
		}
		slot := &c.Best
		if r.Default {
			slot = &c.Default
		}
		if *slot == nil || r.GFlops > (*slot).GFlops {
			*slot = r
		}
	}

	out := make([]BlockingComparison, 0, len(byKey))
	for _, c := range byKey {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b BlockingComparison) int {
		return cmp.Compare(a.Problem.Key(), b.Problem.Key())
	})
	return out
}
