/*
PURPOSE:
  High-level runner that orchestrates a test run.
  Loops through Solvers -> Models, decides applicability, runs and checks.

REQUIREMENTS:
  User-specified:
  - Run every configured solver against every applicable catalog model.
  - Log results to CSV/JSON, skipped pairs included with their reason.

  Implementation-discovered:
  - Needs a run id shared by every row of the run.
  - Dry runs only plan: no solver is started.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/catalog, internal/engine (selector, executor, check), internal/output

ERROR HANDLING:
  - Logs per-model errors but continues (resilience).
  - Setup errors (config, catalog, output files) abort the run.
  - Cancelling ctx stops after the current model.

IMPLEMENTATION RULES:
  - Iterate solvers in config order, models in catalog order.
  - One Result per (solver, model) pair.

USAGE:
  summary, err := engine.Run(ctx, cfg, engine.RunOptions{})

RELATED FILES:
  - internal/engine/executor.go
  - internal/engine/selector.go

MAINTENANCE:
  - Update iteration logic if parallelism is introduced.
*/

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daryltucker/solver-runner/internal/catalog"
	"github.com/daryltucker/solver-runner/internal/config"
	"github.com/daryltucker/solver-runner/internal/model"
	"github.com/daryltucker/solver-runner/internal/output"
)

// RunOptions tunes a single run.
type RunOptions struct {
	// DryRun records the decisions without starting any solver.
	DryRun bool
}

// Summary counts results per status.
type Summary struct {
	RunID  string
	Counts map[model.Status]int
	Total  int
}

func newSummary(runID string) *Summary {
	return &Summary{RunID: runID, Counts: make(map[model.Status]int)}
}

func (s *Summary) add(r model.Result) {
	s.Counts[r.Status]++
	s.Total++
}

// Failures returns the number of failed, errored and timed out runs.
func (s *Summary) Failures() int {
	return s.Counts[model.StatusFailed] + s.Counts[model.StatusError] + s.Counts[model.StatusTimeout]
}

// Runner runs solvers over a catalog.
type Runner struct {
	Config   *config.Config
	Executor *Executor
	RunID    string
}

// NewRunner creates a Runner with a fresh run id.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		Config:   cfg,
		Executor: NewExecutor(cfg.AMPL),
		RunID:    uuid.NewString(),
	}
}

// Run executes the full test suite described by cfg.
func Run(ctx context.Context, cfg *config.Config, opts RunOptions) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.CatalogDirs, cfg.Recursive)
	if err != nil {
		return nil, err
	}
	cat = cat.Select(cfg.Models, cfg.Exclude)
	output.Logger.Info("Catalog loaded", "dirs", cfg.CatalogDirs, "models", cat.Len())

	// Ensure output directory exists
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", cfg.OutputDir, err)
	}

	csvPath := filepath.Join(cfg.OutputDir, cfg.OutputFile)
	csvWriter, err := output.NewCSVWriter(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init CSV writer at %s: %w", csvPath, err)
	}
	defer csvWriter.Close()

	jsonPath := JSONPath(csvPath)
	jsonWriter, err := output.NewJSONWriter(jsonPath, MaxOutputBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to init JSON writer at %s: %w", jsonPath, err)
	}
	defer jsonWriter.Close()

	r := NewRunner(cfg)
	summary, err := r.Execute(ctx, cat.Models(), opts, func(res model.Result) {
		if err := csvWriter.Write(res); err != nil {
			output.Logger.Error("Failed to write result to CSV", "error", err)
		}
		if err := jsonWriter.Write(res); err != nil {
			output.Logger.Error("Failed to write result to JSON", "error", err)
		}
	})
	output.Logger.Info("Results written", "csv", csvPath, "jsonl", jsonPath, "results", jsonWriter.Written())
	return summary, err
}

// MaxOutputBytes bounds the solver output kept per JSON Lines result.
const MaxOutputBytes = 64 * 1024

// JSONPath derives the JSON Lines path from the CSV path.
func JSONPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + ".jsonl"
}

// Execute runs every configured solver over models and hands each result to emit.
func (r *Runner) Execute(ctx context.Context, models []*model.Model, opts RunOptions, emit func(model.Result)) (*Summary, error) {
	summary := newSummary(r.RunID)

	for _, s := range r.Config.Solvers {
		output.Logger.Info("Testing Solver", "solver", s.Name, "models", len(models))

		for _, m := range models {
			if err := ctx.Err(); err != nil {
				output.Logger.Warn("Run interrupted", "solver", s.Name, "completed", summary.Total)
				return summary, err
			}

			res := r.evaluate(ctx, s, m, opts)
			summary.add(res)
			emit(res)
		}
	}

	output.Logger.Info("Run complete",
		"run_id", summary.RunID,
		"total", summary.Total,
		"passed", summary.Counts[model.StatusPassed],
		"failed", summary.Counts[model.StatusFailed],
		"errors", summary.Counts[model.StatusError],
		"timeouts", summary.Counts[model.StatusTimeout],
		"skipped", summary.Counts[model.StatusSkipped],
	)
	return summary, nil
}

// evaluate produces the result of solver s on model m.
func (r *Runner) evaluate(ctx context.Context, s config.Solver, m *model.Model, opts RunOptions) model.Result {
	res := model.Result{
		RunID:     r.RunID,
		Solver:    s.Name,
		Model:     m.Name(),
		File:      m.FilePath(),
		Tags:      m.Tags().Names(),
		Expected:  m.ExpectedObjective(),
		Timestamp: time.Now(),
	}

	decision := Applicable(s, m, r.Executor.AMPL != "")
	if !decision.Run {
		output.Logger.Debug("Skipping model", "solver", s.Name, "model", m.Name(), "reason", decision.Reason)
		res.Status = model.StatusSkipped
		res.Reason = decision.Reason
		return res
	}

	options := MergeOptions(s, m)
	if opts.DryRun {
		res.Status = model.StatusPlanned
		res.Reason = options
		return res
	}

	out, err := r.Executor.Solve(ctx, s, m, options, r.Config.SolverTimeout(s))
	res.Duration = out.Duration
	res.Objective = out.Objective

	switch {
	case errors.Is(err, ErrTimeout):
		res.Status = model.StatusTimeout
		res.Reason = err.Error()
		res.Output = out.Output
		output.Logger.Error("Solver Timeout", "solver", s.Name, "model", m.Name(), "error", err)
		return res
	case err != nil:
		res.Status = model.StatusError
		res.Reason = err.Error()
		res.Output = out.Output
		output.Logger.Error("Solver Failed", "solver", s.Name, "model", m.Name(), "error", err)
		return res
	}

	if err := r.check(m, out); err != nil {
		res.Status = model.StatusFailed
		res.Reason = err.Error()
		res.Output = out.Output
		output.Logger.Error("Check Failed", "solver", s.Name, "model", m.Name(), "error", err)
		return res
	}

	res.Status = model.StatusPassed
	output.Logger.Info("Check Passed", "solver", s.Name, "model", m.Name(), "duration", out.Duration)
	return res
}

func (r *Runner) check(m *model.Model, out Outcome) error {
	if err := CheckObjective(m.ExpectedObjective(), out.Objective, r.Config.Tolerance); err != nil {
		return err
	}
	// Values are printed by the AMPL script only; direct NL runs report the objective.
	if !m.HasExpectedValues() || (m.IsNL() && !m.IsScript()) {
		return nil
	}
	values, err := m.ExpectedValues()
	if err != nil {
		return err
	}
	return CheckValues(values, out.Values, r.Config.Tolerance)
}
