package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugawarayuuta/sonnet"

	"github.com/LynnColeArt/blockbench"
)

const allPOTRun = `benchmark parameters:
minsize = 16
maxsize = 32

BEGIN MEASUREMENTS ALL POT SIZES
555 444 10
555 555 12
455 444 7
`

const defaultRun = `BEGIN MEASUREMENTS DEFAULT SIZES
555 default(32, 32, 32) 8
`

func writeRun(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

// squash collapses column padding to single spaces.
func squash(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

func TestTableFromTwoRuns(t *testing.T) {
	out, err := execute(t, nil, writeRun(t, "all.txt", allPOTRun), writeRun(t, "default.txt", defaultRun))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Speedup")

	// Rows are ordered by problem key: 455 before 555.
	assert.Equal(t, "(16, 32, 32) - - (16, 16, 16) 7 -", squash(lines[2]))
	assert.Equal(t, "(32, 32, 32) (32, 32, 32) 8 (32, 32, 32) 12 1.50x", squash(lines[3]))
}

func TestJSONFromStdin(t *testing.T) {
	out, err := execute(t, strings.NewReader(allPOTRun), "--json")
	require.NoError(t, err)

	var rows []row
	require.NoError(t, sonnet.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, "(32, 32, 32)", rows[1].Problem)
	assert.Equal(t, "(32, 32, 32)", rows[1].BestBlock)
	assert.Equal(t, 12.0, rows[1].BestGFlops)
	assert.Empty(t, rows[1].DefaultBlock)
	assert.Zero(t, rows[1].Speedup)
}

func TestMissingMarker(t *testing.T) {
	_, err := execute(t, strings.NewReader("555 444 10\n"))
	require.Error(t, err)
	assert.True(t, blockbench.IsInvalidArgError(err))

	_, err = execute(t, nil, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestBuildRowsSpeedup(t *testing.T) {
	results := []blockbench.Result{
		{ProblemKey: 0x555, Default: true, Block: blockbench.SizeTriple{K: 32, M: 32, N: 16}, GFlops: 4},
		{ProblemKey: 0x555, Block: blockbench.SizeTriple{K: 16, M: 16, N: 16}, GFlops: 5},
		{ProblemKey: 0x555, Block: blockbench.SizeTriple{K: 32, M: 32, N: 32}, GFlops: 6},
	}
	rows := buildRows(blockbench.CompareBlockings(results))
	require.Len(t, rows, 1)
	assert.Equal(t, "(32, 32, 16)", rows[0].DefaultBlock)
	assert.Equal(t, "(32, 32, 32)", rows[0].BestBlock)
	assert.InDelta(t, 1.5, rows[0].Speedup, 1e-12)
}
