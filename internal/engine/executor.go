/*
PURPOSE:
  Core engine for running one solver on one model.
  Handles NL models directly and other models through a generated AMPL script.

REQUIREMENTS:
  User-specified:
  - Run AMPL solver drivers on NL files ("<solver> file.nl -AMPL").
  - Run .mod models and scripts through AMPL.
  - Enforce a timeout per run.

  Implementation-discovered:
  - Drivers read options from the <solver>_options environment variable.
  - The AMPL script prints OBJECTIVE=/VALUE markers so output parsing does not
    depend on the solver message format. NL runs fall back to "objective <v>".
  - WaitDelay keeps a hung child from blocking on its output pipes.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go
  - Uses: internal/config (Solver), internal/model (Model)

ERROR HANDLING:
  - ErrTimeout when the run exceeds its deadline.
  - ErrSolverFailed on a non-zero exit or a process that cannot start.
  - Output is returned with the error for the result record.

IMPLEMENTATION RULES:
  - Use os/exec with context.
  - Never write next to the model files; scripts go to a temp dir.

USAGE:
  x := engine.NewExecutor(cfg.AMPL)
  out, err := x.Solve(ctx, solver, m, options, timeout)

SELF-HEALING INSTRUCTIONS:
  - If objectives are never found, check the solver's final message with --log-level debug.

RELATED FILES:
  - internal/engine/runner.go
  - internal/engine/check.go

MAINTENANCE:
  - Update the script template when new model kinds need other AMPL commands.
*/

package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/daryltucker/solver-runner/internal/config"
	"github.com/daryltucker/solver-runner/internal/model"
	"github.com/daryltucker/solver-runner/internal/output"
)

var (
	// ErrTimeout is returned when a run exceeds its deadline.
	ErrTimeout = errors.New("solver timed out")
	// ErrSolverFailed is returned when the solver or AMPL process fails.
	ErrSolverFailed = errors.New("solver run failed")
)

const (
	objectiveMarker = "OBJECTIVE="
	valueMarker     = "VALUE "
)

// solveMessage matches the objective in a driver's solve message,
// e.g. "HiGHS 1.7.0: optimal solution; objective 88.2".
var solveMessage = regexp.MustCompile(`objective\s+([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)`)

// Outcome is what a solver run reported.
type Outcome struct {
	Objective *float64
	Values    map[string]string
	Output    string
	Duration  time.Duration
}

// Executor runs solvers as child processes.
type Executor struct {
	// AMPL is the AMPL executable; empty disables non-NL models.
	AMPL string
	// WaitDelay bounds how long Wait blocks on output after the process is killed.
	WaitDelay time.Duration
}

// NewExecutor creates a new Executor.
func NewExecutor(ampl string) *Executor {
	return &Executor{AMPL: ampl, WaitDelay: 2 * time.Second}
}

// Solve runs solver s on model m with options and returns what it reported.
func (x *Executor) Solve(ctx context.Context, s config.Solver, m *model.Model, options string, timeout time.Duration) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	file, err := filepath.Abs(m.FilePath())
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrSolverFailed, err)
	}

	var cmd *exec.Cmd
	if m.IsNL() && !m.IsScript() {
		args := append(append([]string{}, s.Args...), file, "-AMPL")
		cmd = exec.CommandContext(ctx, s.Path, args...)
	} else {
		if x.AMPL == "" {
			return Outcome{}, fmt.Errorf("%w: model %s needs AMPL", ErrSolverFailed, m.Name())
		}
		script, err := x.writeScript(s, m, options)
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: %v", ErrSolverFailed, err)
		}
		defer os.Remove(script)
		cmd = exec.CommandContext(ctx, x.AMPL, script)
	}
	cmd.Dir = filepath.Dir(file)
	cmd.Env = append(os.Environ(), s.Name+"_options="+options)
	cmd.WaitDelay = x.WaitDelay

	output.Logger.Debug("Starting solver", "solver", s.Name, "model", m.Name(), "cmd", cmd.String())

	start := time.Now()
	raw, runErr := cmd.CombinedOutput()
	out := Outcome{
		Output:   string(raw),
		Duration: time.Since(start),
	}
	out.Objective, out.Values = parseOutput(out.Output, expectedNames(m))

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return out, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	if runErr != nil {
		return out, fmt.Errorf("%w: %v", ErrSolverFailed, runErr)
	}
	return out, nil
}

// writeScript writes the AMPL driver script for m into a temp file.
func (x *Executor) writeScript(s config.Solver, m *model.Model, options string) (string, error) {
	file, err := filepath.Abs(m.FilePath())
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "option solver %s;\n", amplString(s.Path))
	fmt.Fprintf(&b, "option %s_options %s;\n", s.Name, amplString(options))

	if m.IsScript() || strings.EqualFold(filepath.Ext(file), ".run") {
		fmt.Fprintf(&b, "include %s;\n", amplString(file))
	} else {
		fmt.Fprintf(&b, "model %s;\n", amplString(file))
		for _, other := range m.AdditionalFiles() {
			abs, err := filepath.Abs(other)
			if err != nil {
				return "", err
			}
			switch strings.ToLower(filepath.Ext(abs)) {
			case ".dat":
				fmt.Fprintf(&b, "data %s;\n", amplString(abs))
			case ".mod":
				fmt.Fprintf(&b, "model %s;\n", amplString(abs))
			case ".run":
				fmt.Fprintf(&b, "include %s;\n", amplString(abs))
			}
		}
		b.WriteString("solve;\n")
	}

	fmt.Fprintf(&b, "if _nobjs > 0 then printf \"%s%%.17g\\n\", _obj[1];\n", objectiveMarker)

	if m.HasExpectedValues() {
		values, _ := m.ExpectedValues()
		for _, name := range expectedNames(m) {
			format := "%.17g"
			if _, isNum := toFloat(values[name]); !isNum {
				format = "%s"
			}
			fmt.Fprintf(&b, "printf \"%s%%s=%s\\n\", %s, %s;\n", valueMarker, format, amplString(name), name)
		}
	}

	f, err := os.CreateTemp("", "solver-runner-*.run")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// amplString quotes s as an AMPL string literal.
func amplString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// expectedNames returns the sorted expressions of m's expected values.
func expectedNames(m *model.Model) []string {
	if !m.HasExpectedValues() {
		return nil
	}
	values, _ := m.ExpectedValues()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// splitValue splits a VALUE line into expression and value. Expressions may
// contain '=' inside subscripts, so the longest known name wins; unknown
// names are split at the first '='.
func splitValue(rest string, names []string) (string, string, bool) {
	best := ""
	for _, name := range names {
		if len(name) > len(best) && strings.HasPrefix(rest, name+"=") {
			best = name
		}
	}
	if best != "" {
		return best, rest[len(best)+1:], true
	}
	return strings.Cut(rest, "=")
}

// parseOutput extracts the objective and the printed values from solver output.
// An OBJECTIVE= marker wins over the solve message. names are the expressions
// the script printed.
func parseOutput(out string, names []string) (*float64, map[string]string) {
	var objective *float64
	var fromMessage *float64
	var values map[string]string

	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, objectiveMarker):
			if v, err := strconv.ParseFloat(strings.TrimPrefix(line, objectiveMarker), 64); err == nil {
				objective = &v
			}
		case strings.HasPrefix(line, valueMarker):
			name, value, ok := splitValue(strings.TrimPrefix(line, valueMarker), names)
			if !ok {
				continue
			}
			if values == nil {
				values = make(map[string]string)
			}
			values[name] = value
		default:
			if match := solveMessage.FindStringSubmatch(line); match != nil {
				if v, err := strconv.ParseFloat(match[1], 64); err == nil {
					fromMessage = &v
				}
			}
		}
	}

	if objective == nil {
		objective = fromMessage
	}
	return objective, values
}
