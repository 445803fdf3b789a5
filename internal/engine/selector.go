package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/daryltucker/solver-runner/internal/config"
	"github.com/daryltucker/solver-runner/internal/model"
)

// AnySolverOptions is the description options key applied to every solver.
const AnySolverOptions = "ANYSOLVER_options"

// Decision says whether a solver should attempt a model, and why not.
type Decision struct {
	Run    bool
	Reason string
}

func skip(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// Applicable decides whether solver s attempts model m. haveAMPL tells
// whether an AMPL executable is available for non-NL models.
func Applicable(s config.Solver, m *model.Model, haveAMPL bool) Decision {
	if m.HasSolvers() {
		solvers, _ := m.Solvers()
		if !slices.ContainsFunc(solvers, func(n string) bool { return strings.EqualFold(n, s.Name) }) {
			return skip("model is validated only for %s", strings.Join(solvers, ", "))
		}
	}

	if !m.IsSubsetOfTags(s.Tags) {
		return skip("unsupported tags: %s", strings.Join(unsupported(m, s.Tags), ", "))
	}

	if m.HasAnyTag(s.ExcludeTags) {
		return skip("excluded tags: %s", strings.Join(m.Tags().Intersect(s.ExcludeTags).Names(), ", "))
	}

	if !m.IsNL() || m.IsScript() {
		if s.NLOnly {
			return skip("solver accepts NL models only")
		}
		if !haveAMPL {
			return skip("model needs AMPL and none is configured")
		}
	}

	return Decision{Run: true}
}

// unsupported lists the model tags missing from supported, ordered by id.
func unsupported(m *model.Model, supported model.TagSet) []string {
	var names []string
	for _, t := range m.Tags().Sorted() {
		if !supported.Has(t) {
			names = append(names, t.String())
		}
	}
	return names
}

// MergeOptions builds the option string for solver s on model m: the
// solver's base options, then the model's ANYSOLVER_options, then its
// <solver>_options.
func MergeOptions(s config.Solver, m *model.Model) string {
	parts := []string{s.Options}
	if m.HasOptions() {
		opts, _ := m.Options()
		parts = append(parts, opts[AnySolverOptions], opts[s.Name+"_options"])
	}

	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
