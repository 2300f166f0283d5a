// Command bench-parser summarizes saved blockbench result tables: for every
// problem size it shows the fastest forced blocking next to the kernel's
// default blocking.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sugawarayuuta/sonnet"

	"github.com/LynnColeArt/blockbench"
)

type row struct {
	Problem       string  `json:"problem"`
	DefaultBlock  string  `json:"default_block,omitempty"`
	DefaultGFlops float64 `json:"default_gflops,omitempty"`
	BestBlock     string  `json:"best_block,omitempty"`
	BestGFlops    float64 `json:"best_gflops,omitempty"`
	Speedup       float64 `json:"speedup,omitempty"`
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "bench-parser [file...]",
		Short: "Compare best forced blocking against default blocking",
		Long: `Reads one or more blockbench outputs (stdin when no file is given) and
prints one row per problem size. Forced blockings come from an
all-pot-sizes run and the default blocking from a default-sizes run, so
pass one of each. Both runs must come from the same machine under the
same conditions for the speedup to mean anything.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var results []blockbench.Result
			if len(args) == 0 {
				r, err := blockbench.ReadResults(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("stdin: %w", err)
				}
				results = r
			}
			for _, path := range args {
				r, err := readFile(path)
				if err != nil {
					return err
				}
				results = append(results, r...)
			}

			rows := buildRows(blockbench.CompareBlockings(results))
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			writeTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print rows as a JSON array")
	return cmd
}

func readFile(path string) ([]blockbench.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	results, err := blockbench.ReadResults(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return results, nil
}

func buildRows(comparisons []blockbench.BlockingComparison) []row {
	rows := make([]row, 0, len(comparisons))
	for i := range comparisons {
		c := &comparisons[i]
		r := row{Problem: c.Problem.String()}
		if c.Default != nil {
			r.DefaultBlock = c.Default.Block.String()
			r.DefaultGFlops = c.Default.GFlops
		}
		if c.Best != nil {
			r.BestBlock = c.Best.Block.String()
			r.BestGFlops = c.Best.GFlops
		}
		if s, ok := c.Speedup(); ok {
			r.Speedup = s
		}
		rows = append(rows, r)
	}
	return rows
}

func writeJSON(w io.Writer, rows []row) error {
	data, err := sonnet.Marshal(rows)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func writeTable(w io.Writer, rows []row) {
	fmt.Fprintf(w, "%-20s %-20s %10s %-20s %10s %8s\n",
		"Problem", "Default", "GFLOPS", "Best block", "GFLOPS", "Speedup")
	fmt.Fprintln(w, strings.Repeat("-", 93))

	for _, r := range rows {
		fmt.Fprintf(w, "%-20s %-20s %10s %-20s %10s %8s\n",
			r.Problem,
			orDash(r.DefaultBlock), gflops(r.DefaultGFlops),
			orDash(r.BestBlock), gflops(r.BestGFlops),
			speedup(r.Speedup))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func gflops(g float64) string {
	if g == 0 {
		return "-"
	}
	return fmt.Sprintf("%.4g", g)
}

func speedup(s float64) string {
	if s == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fx", s)
}
