/*
PURPOSE:
  Writes run results to a CSV file.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  User-specified:
  - Output to CSV, one row per (solver, model) pair.

  Implementation-discovered:
  - A previous file of the same name is overwritten.
  - Missing objectives are written as empty cells, not as 0.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine
  - Consumes: internal/model.Result

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write (critical for crash resilience).
  - Mutex guards writes.

USAGE:
  w, err := output.NewCSVWriter("results.csv")
  w.Write(result)
  w.Close()

MAINTENANCE:
  - Update Write() mapping when Result struct changes.
*/

package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/daryltucker/solver-runner/internal/model"
)

// CSVHeader lists the columns written by CSVWriter.
var CSVHeader = []string{
	"run_id", "solver", "model", "file", "tags", "status", "reason",
	"expected_objective", "objective", "timestamp", "duration_s",
}

// CSVWriter handles writing results to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter creates a new CSVWriter.
// It overwrites the file if it exists.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()

	return &CSVWriter{
		file:   f,
		writer: w,
	}, nil
}

// Write writes a single result to the CSV file.
// It is thread-safe.
func (cw *CSVWriter) Write(r model.Result) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	record := []string{
		r.RunID,
		r.Solver,
		r.Model,
		r.File,
		strings.Join(r.Tags, " "),
		string(r.Status),
		r.Reason,
		formatFloat(r.Expected),
		formatFloat(r.Objective),
		r.Timestamp.Format(time.RFC3339),
		fmt.Sprintf("%.4f", r.Duration.Seconds()),
	}

	if err := cw.writer.Write(record); err != nil {
		return err
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// Close closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	return cw.file.Close()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
