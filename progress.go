package blockbench

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// HumanDuration renders d as "1 h 5 min", "12 min 3 s" or "42 s". Seconds
// are dropped once the total reaches ten minutes.
func HumanDuration(d time.Duration) string {
	total := int(d.Seconds())
	remainder := total
	var parts []string
	if remainder > 3600 {
		hours := remainder / 3600
		parts = append(parts, fmt.Sprintf("%d h", hours))
		remainder -= hours * 3600
	}
	if remainder > 60 {
		minutes := remainder / 60
		parts = append(parts, fmt.Sprintf("%d min", minutes))
		remainder -= minutes * 60
	}
	if total < 600 {
		parts = append(parts, fmt.Sprintf("%d s", remainder))
	}
	return strings.Join(parts, " ")
}

// EstimateRemaining extrapolates the time left from the fraction done.
func EstimateRemaining(elapsed time.Duration, done float64) (time.Duration, bool) {
	if done <= 0 {
		return 0, false
	}
	return time.Duration(float64(elapsed) * (1 - done) / done), true
}

// Progress reports measurement progress at most once per interval. On a
// terminal it redraws one status line; otherwise it logs.
type Progress struct {
	w        io.Writer
	tty      bool
	logger   *slog.Logger
	interval time.Duration
	last     time.Time
	drawn    bool
}

// NewProgress reports to w, or through logger when w is not a terminal.
func NewProgress(w io.Writer, logger *slog.Logger, interval time.Duration) *Progress {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Progress{w: w, logger: logger, interval: interval}
	if f, ok := w.(*os.File); ok {
		p.tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return p
}

// Update reports that fraction done of the run is complete at now.
func (p *Progress) Update(now, start time.Time, done float64) {
	if p == nil || now.Sub(p.last) < p.interval {
		return
	}
	p.last = now

	eta := "unknown"
	if d, ok := EstimateRemaining(now.Sub(start), done); ok {
		eta = HumanDuration(d)
	}
	if p.tty {
		fmt.Fprintf(p.w, "\rMeasurements... %.4g %%, ETA %s\x1b[K", 100*done, eta)
		p.drawn = true
		return
	}
	p.logger.Info("measurements",
		slog.Float64("percent", 100*done),
		slog.String("eta", eta))
}

// Clear erases the status line, if one was drawn.
func (p *Progress) Clear() {
	if p == nil || !p.drawn {
		return
	}
	fmt.Fprint(p.w, "\r\x1b[K")
	p.drawn = false
}
