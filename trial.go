package blockbench

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Trial is a single measurement: one problem size, one blocking and, once
// run, the measured throughput.
type Trial struct {
	Problem  SizeTriple
	Blocking Blocking

	// GFlops is zero until the trial has been measured.
	GFlops float64
	// Iterations is the batch length the adaptive timer accepted.
	Iterations int64

	// Per-trial overrides. A zero MinWorkingSetSize means outsize caches.
	MinWorkingSetSize uint64
	MinAccurateTime   time.Duration
}

// NewTrial creates an unmeasured trial carrying the configured timing
// overrides.
func NewTrial(problem SizeTriple, block Blocking, cfg *Config) Trial {
	return Trial{
		Problem:           problem,
		Blocking:          block,
		MinWorkingSetSize: cfg.MinWorkingSetSize,
		MinAccurateTime:   cfg.MinAccurateTime,
	}
}

// ProblemKey is the compact key of the problem size.
func (t *Trial) ProblemKey() SizeKey {
	return t.Problem.Key()
}

// BlockKey is the compact key of the forced blocking, or 0 for default
// blocking.
func (t *Trial) BlockKey() SizeKey {
	if size, ok := t.Blocking.Size(); ok {
		return size.Key()
	}
	return 0
}

// Measured reports whether the trial holds a throughput.
func (t *Trial) Measured() bool {
	return t.Iterations > 0
}

func (t *Trial) discard() {
	t.GFlops = 0
	t.Iterations = 0
}

// sameConfiguration reports whether a and b measure the same configuration.
func sameConfiguration(a, b *Trial) bool {
	return a.ProblemKey() == b.ProblemKey() &&
		a.BlockKey() == b.BlockKey() &&
		a.Blocking.IsDefault() == b.Blocking.IsDefault()
}

// Result is one line of the result table.
type Result struct {
	ProblemKey SizeKey
	// Default is set when the kernel chose the blocking; Block then holds
	// the blocking it chose.
	Default bool
	Block   SizeTriple
	GFlops  float64
}

// Result converts a measured trial into a table row. k supplies the default
// blocking for trials that did not force one.
func (t *Trial) Result(k Kernel) Result {
	r := Result{ProblemKey: t.ProblemKey(), GFlops: t.GFlops}
	if size, ok := t.Blocking.Size(); ok {
		r.Block = size
	} else {
		r.Default = true
		r.Block = k.AutoBlocking(t.Problem)
	}
	return r
}

// String formats r as
//
//	<problem-key-hex> default(<k>, <m>, <n>) <gflops>
//	<problem-key-hex> <block-key-hex> <gflops>
func (r Result) String() string {
	var sb strings.Builder
	sb.WriteString(r.ProblemKey.String())
	if r.Default {
		fmt.Fprintf(&sb, " default(%d, %d, %d)", r.Block.K, r.Block.M, r.Block.N)
	} else {
		sb.WriteString(" ")
		sb.WriteString(r.Block.Key().String())
	}
	sb.WriteString(" ")
	sb.WriteString(strconv.FormatFloat(r.GFlops, 'g', 4, 64))
	return sb.String()
}

// ParseResultLine parses a line produced by Result.String.
func ParseResultLine(line string) (Result, error) {
	const op = "ParseResultLine"
	var r Result

	line = strings.TrimSpace(line)
	keyField, rest, ok := strings.Cut(line, " ")
	if !ok {
		return r, NewInvalidArgError(op, fmt.Sprintf("malformed result line %q", line))
	}
	key, err := ParseSizeKey(keyField)
	if err != nil {
		return r, err
	}
	r.ProblemKey = key

	i := strings.LastIndexByte(rest, ' ')
	if i < 0 {
		return r, NewInvalidArgError(op, fmt.Sprintf("missing throughput in %q", line))
	}
	blockField, gflopsField := strings.TrimSpace(rest[:i]), rest[i+1:]

	r.GFlops, err = strconv.ParseFloat(gflopsField, 64)
	if err != nil {
		return r, NewInvalidArgError(op, fmt.Sprintf("bad throughput %q", gflopsField))
	}

	if strings.HasPrefix(blockField, "default(") {
		var k, m, n int
		if _, err := fmt.Sscanf(blockField, "default(%d, %d, %d)", &k, &m, &n); err != nil {
			return r, NewInvalidArgError(op, fmt.Sprintf("bad default blocking %q", blockField))
		}
		r.Default = true
		r.Block = SizeTriple{K: k, M: m, N: n}
		return r, nil
	}

	blockKey, err := ParseSizeKey(blockField)
	if err != nil {
		return r, err
	}
	r.Block = blockKey.Decode()
	return r, nil
}
