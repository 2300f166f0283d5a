package blockbench

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sugawarayuuta/sonnet"
)

// Journal entry kinds
const (
	EntryTrial       = "trial"
	EntryCalibration = "calibration"
	EntryRestart     = "restart"
	EntryBackoff     = "backoff"
)

// JournalEntry is one line of the run journal.
type JournalEntry struct {
	RunID      string        `json:"run_id"`
	Kind       string        `json:"kind"`
	Timestamp  time.Time     `json:"timestamp"`
	Index      int           `json:"index"`
	Problem    string        `json:"problem,omitempty"`
	Block      string        `json:"block,omitempty"`
	GFlops     float64       `json:"gflops,omitempty"`
	Iterations int64         `json:"iterations,omitempty"`
	ClockSpeed float64       `json:"clock_speed,omitempty"`
	Ratio      float64       `json:"ratio,omitempty"`
	GHz        float64       `json:"ghz,omitempty"`
	Sleep      time.Duration `json:"sleep,omitempty"`
	Reason     string        `json:"reason,omitempty"`
}

// Journal appends JSON lines describing everything the scheduler did during
// one run. It is written for offline inspection and never read back. A nil
// *Journal discards entries.
type Journal struct {
	w     io.Writer
	c     io.Closer
	runID string
	path  string
	err   error
}

// NewJournal writes entries for run to w.
func NewJournal(w io.Writer, run uuid.UUID) *Journal {
	return &Journal{w: w, runID: run.String()}
}

// OpenJournal creates <dir>/<session>_<timestamp>.jsonl.
func OpenJournal(dir, session string, run uuid.UUID) (*Journal, error) {
	// Create log directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.jsonl", session, timestamp))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal: %w", err)
	}
	j := NewJournal(f, run)
	j.c = f
	j.path = path
	return j, nil
}

// Path is the journal file, if any.
func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Record appends e. The first write error is kept and reported by Close;
// later entries are dropped.
func (j *Journal) Record(e JournalEntry) {
	if j == nil || j.err != nil {
		return
	}
	e.RunID = j.runID
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	data, err := sonnet.Marshal(e)
	if err != nil {
		j.err = fmt.Errorf("failed to marshal journal entry: %w", err)
		return
	}
	data = append(data, '\n')
	if _, err := j.w.Write(data); err != nil {
		j.err = fmt.Errorf("failed to write journal: %w", err)
	}
}

// Close releases the journal file and returns the first write error.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	if j.c != nil {
		if err := j.c.Close(); err != nil && j.err == nil {
			j.err = err
		}
	}
	return j.err
}
