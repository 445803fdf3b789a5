/*
PURPOSE:
  Writes run results to a JSON Lines file (NDJSON), one solver run per line.

REQUIREMENTS:
  User-specified:
  - JSON output for machine parsing and comparison between runs.

  Implementation-discovered:
  - JSON Lines is append-friendly; a crashed run still leaves every finished line.
  - Solver logs can be megabytes. Only the tail of Output is kept, where drivers
    print the solve message.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Run)
  - Consumes: internal/model.Result

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/json.NewEncoder.
  - Thread-safe.

USAGE:
  w, err := output.NewJSONWriter("solver_results.jsonl", 64*1024)
  w.Write(result)
  w.Close()
*/

package output

import (
	"encoding/json"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/daryltucker/solver-runner/internal/model"
)

// TruncatedPrefix marks solver output that was cut to its tail.
const TruncatedPrefix = "[truncated] ..."

// JSONWriter handles writing results to a JSON Lines file.
type JSONWriter struct {
	file      *os.File
	encoder   *json.Encoder
	maxOutput int
	written   int
	mu        sync.Mutex
}

// NewJSONWriter creates a new JSONWriter. maxOutput bounds the bytes of
// solver output kept per result; zero keeps everything.
func NewJSONWriter(path string, maxOutput int) (*JSONWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	return &JSONWriter{
		file:      f,
		encoder:   json.NewEncoder(f),
		maxOutput: maxOutput,
	}, nil
}

// Write writes a single result as a JSON line.
func (jw *JSONWriter) Write(r model.Result) error {
	r.Output = tail(r.Output, jw.maxOutput)

	jw.mu.Lock()
	defer jw.mu.Unlock()
	if err := jw.encoder.Encode(r); err != nil {
		return err
	}
	jw.written++
	return nil
}

// Written returns the number of results written so far.
func (jw *JSONWriter) Written() int {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.written
}

// Close closes the underlying file.
func (jw *JSONWriter) Close() error {
	return jw.file.Close()
}

// tail returns the last limit bytes of s, starting on a rune boundary.
func tail(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	start := len(s) - limit
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return TruncatedPrefix + s[start:]
}
