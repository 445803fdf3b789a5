/*
PURPOSE:
  Defines the record produced for every (solver, model) pair of a run.

REQUIREMENTS:
  User-specified:
  - Record the solver, model, expected and obtained objective, verdict.
  - Skipped pairs are recorded too, with the reason.

  Implementation-discovered:
  - Need JSON tags for the JSON Lines writer.
  - CSV mapping lives in internal/output/csv.go.

ARCHITECTURE INTEGRATION:
  - Used by: internal/engine, internal/output

ERROR HANDLING:
  - None (pure data structs).

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Use time.Time and time.Duration for high precision.

USAGE:
  res := model.Result{Solver: "highs", Model: m.Name(), Status: model.StatusPassed}

RELATED FILES:
  - internal/output/csv.go
  - internal/output/json.go

MAINTENANCE:
  - Update when adding new columns to capture.
*/

package model

import (
	"time"
)

// Status is the verdict of one (solver, model) pair.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
	// StatusPlanned marks pairs that would run, in dry-run mode.
	StatusPlanned Status = "planned"
)

// Result represents the outcome of a single solver run on a model.
type Result struct {
	RunID     string        `json:"run_id"`
	Solver    string        `json:"solver"`
	Model     string        `json:"model"`
	File      string        `json:"file"`
	Tags      []string      `json:"tags"`
	Status    Status        `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Expected  *float64      `json:"expected_objective,omitempty"`
	Objective *float64      `json:"objective,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Output    string        `json:"output,omitempty"` // solver output, kept on failures
}
