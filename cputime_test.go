package blockbench

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessCPUClockAdvances(t *testing.T) {
	var c ProcessCPUClock
	start := c.CPUTime()

	x := 1.0
	for i := 0; i < 20_000_000; i++ {
		x = x*1.0000001 + 1e-9
	}
	_ = x

	assert.Greater(t, c.CPUTime(), start)
}
