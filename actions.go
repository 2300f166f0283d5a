package blockbench

import (
	"fmt"
	"slices"
	"strings"
)

// Action names accepted on the command line
const (
	ActionAllPOTSizes  = "all-pot-sizes"
	ActionDefaultSizes = "default-sizes"
)

// Action is a named trial-set generator.
type Action struct {
	Name string
	// Marker is printed on its own line right before the result table.
	Marker string
	// Generate builds the unmeasured trial list, repetitions included.
	Generate func(cfg *Config) []Trial
}

var actions = map[string]Action{
	ActionAllPOTSizes: {
		Name:     ActionAllPOTSizes,
		Marker:   "BEGIN MEASUREMENTS ALL POT SIZES",
		Generate: AllPOTSizes,
	},
	ActionDefaultSizes: {
		Name:     ActionDefaultSizes,
		Marker:   "BEGIN MEASUREMENTS DEFAULT SIZES",
		Generate: DefaultSizes,
	},
}

// LookupAction returns the action called name.
func LookupAction(name string) (Action, error) {
	a, ok := actions[name]
	if !ok {
		return Action{}, NewConfigError("LookupAction", fmt.Sprintf(
			"unknown action %q, want one of: %s", name, strings.Join(ActionNames(), ", ")))
	}
	return a, nil
}

// ActionNames lists the available actions in sorted order.
func ActionNames() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// potRange calls fn for every power of two from lo to hi inclusive.
func potRange(lo, hi int, fn func(int)) {
	for x := lo; x <= hi; x *= 2 {
		fn(x)
	}
}

// problemSizes enumerates every power-of-two problem within the configured
// bounds, k outermost.
func problemSizes(cfg *Config, fn func(SizeTriple)) {
	potRange(cfg.MinSize, cfg.MaxSize, func(k int) {
		potRange(cfg.MinSize, cfg.MaxSize, func(m int) {
			potRange(cfg.MinSize, cfg.MaxSize, func(n int) {
				fn(SizeTriple{K: k, M: m, N: n})
			})
		})
	})
}

// AllPOTSizes measures every problem size against every block size that
// fits inside it.
func AllPOTSizes(cfg *Config) []Trial {
	var trials []Trial
	for rep := 0; rep < cfg.Repetitions; rep++ {
		problemSizes(cfg, func(p SizeTriple) {
			potRange(cfg.MinSize, p.K, func(bk int) {
				potRange(cfg.MinSize, p.M, func(bm int) {
					potRange(cfg.MinSize, p.N, func(bn int) {
						block := Block(SizeTriple{K: bk, M: bm, N: bn})
						trials = append(trials, NewTrial(p, block, cfg))
					})
				})
			})
		})
	}
	return trials
}

// DefaultSizes measures every problem size with the kernel's own blocking.
func DefaultSizes(cfg *Config) []Trial {
	var trials []Trial
	for rep := 0; rep < cfg.Repetitions; rep++ {
		problemSizes(cfg, func(p SizeTriple) {
			trials = append(trials, NewTrial(p, DefaultBlocking(), cfg))
		})
	}
	return trials
}
