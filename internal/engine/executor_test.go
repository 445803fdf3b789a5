package engine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/solver-runner/internal/config"
	"github.com/daryltucker/solver-runner/internal/model"
)

// fakeSolver writes an executable shell script standing in for a solver driver.
func fakeSolver(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake solvers are shell scripts")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func TestSolveNL(t *testing.T) {
	dir := t.TempDir()
	path := fakeSolver(t, dir, "fake", `echo "args: $@"
echo "opts: $fake_options"
echo "Fake 1.0: optimal solution; objective 42.5"`)
	m := model.NewLinear(touch(t, filepath.Join(dir, "lp.nl")), 42.5)

	s := config.Solver{Name: "fake", Path: path, Args: []string{"-s"}}
	out, err := NewExecutor("").Solve(context.Background(), s, m, "outlev=1", 10*time.Second)
	require.NoError(t, err)

	require.NotNil(t, out.Objective)
	assert.InDelta(t, 42.5, *out.Objective, 0)
	assert.Contains(t, out.Output, "args: -s "+filepath.Join(dir, "lp.nl")+" -AMPL")
	assert.Contains(t, out.Output, "opts: outlev=1")
	assert.Positive(t, out.Duration)
}

func TestSolveFailure(t *testing.T) {
	dir := t.TempDir()
	path := fakeSolver(t, dir, "broken", `echo "license error"
exit 3`)
	m := model.NewLinear(touch(t, filepath.Join(dir, "lp.nl")), 1)

	out, err := NewExecutor("").Solve(context.Background(), config.Solver{Name: "broken", Path: path}, m, "", 10*time.Second)
	require.ErrorIs(t, err, ErrSolverFailed)
	assert.Contains(t, out.Output, "license error")
	assert.Nil(t, out.Objective)
}

func TestSolveMissingExecutable(t *testing.T) {
	dir := t.TempDir()
	m := model.NewLinear(touch(t, filepath.Join(dir, "lp.nl")), 1)

	_, err := NewExecutor("").Solve(context.Background(),
		config.Solver{Name: "ghost", Path: filepath.Join(dir, "does-not-exist")}, m, "", time.Second)
	assert.ErrorIs(t, err, ErrSolverFailed)
}

func TestSolveTimeout(t *testing.T) {
	dir := t.TempDir()
	path := fakeSolver(t, dir, "slow", "exec sleep 10")
	m := model.NewLinear(touch(t, filepath.Join(dir, "lp.nl")), 1)

	start := time.Now()
	_, err := NewExecutor("").Solve(context.Background(), config.Solver{Name: "slow", Path: path}, m, "", 200*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSolveThroughAMPL(t *testing.T) {
	dir := t.TempDir()
	captured := filepath.Join(dir, "captured.run")
	ampl := fakeSolver(t, dir, "ampl", `cp "$1" `+captured+`
echo "OBJECTIVE=7"
echo "VALUE solve_result=solved"
echo "VALUE Buy['BEEF']=1.5"`)

	mod := touch(t, filepath.Join(dir, "diet.mod"))
	dat := touch(t, filepath.Join(dir, "diet.dat"))
	m := model.New(mod, model.Objective(7), model.NewTagSet(model.Linear),
		model.WithOtherFiles(dat),
		model.WithDescription(&model.Description{
			Values: map[string]any{"solve_result": "solved", "Buy['BEEF']": 1.5},
		}))

	s := config.Solver{Name: "highs", Path: "/opt/solvers/highs"}
	out, err := NewExecutor(ampl).Solve(context.Background(), s, m, "outlev=1", 10*time.Second)
	require.NoError(t, err)

	require.NotNil(t, out.Objective)
	assert.InDelta(t, 7.0, *out.Objective, 0)
	assert.Equal(t, map[string]string{"solve_result": "solved", "Buy['BEEF']": "1.5"}, out.Values)

	script, err := os.ReadFile(captured)
	require.NoError(t, err)
	assert.Equal(t, "option solver '/opt/solvers/highs';\n"+
		"option highs_options 'outlev=1';\n"+
		"model '"+mod+"';\n"+
		"data '"+dat+"';\n"+
		"solve;\n"+
		"if _nobjs > 0 then printf \"OBJECTIVE=%.17g\\n\", _obj[1];\n"+
		"printf \"VALUE %s=%.17g\\n\", 'Buy[''BEEF'']', Buy['BEEF'];\n"+
		"printf \"VALUE %s=%s\\n\", 'solve_result', solve_result;\n",
		string(script))
}

func TestSolveScriptThroughAMPL(t *testing.T) {
	dir := t.TempDir()
	captured := filepath.Join(dir, "captured.run")
	ampl := fakeSolver(t, dir, "ampl", `cp "$1" `+captured+`
echo "OBJECTIVE=1"`)

	run := touch(t, filepath.Join(dir, "loop.run"))
	m := model.New(run, nil, model.NewTagSet(model.Script))

	_, err := NewExecutor(ampl).Solve(context.Background(), config.Solver{Name: "x", Path: "x"}, m, "", 10*time.Second)
	require.NoError(t, err)

	script, err := os.ReadFile(captured)
	require.NoError(t, err)
	assert.Contains(t, string(script), "include '"+run+"';\n")
	assert.NotContains(t, string(script), "solve;")
}

func TestSolveWithoutAMPL(t *testing.T) {
	m := model.NewLinear("diet.mod", 1)
	_, err := NewExecutor("").Solve(context.Background(), config.Solver{Name: "x", Path: "x"}, m, "", time.Second)
	assert.ErrorIs(t, err, ErrSolverFailed)
}

func TestParseOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		out    string
		names  []string
		want   *float64
		values map[string]string
	}{
		{"solve message", "Gurobi 11.0.0: optimal solution; objective -3.25e+02\n", nil, model.Objective(-325), nil},
		{"marker wins", "HiGHS: optimal solution; objective 1\nOBJECTIVE=2\n", nil, model.Objective(2), nil},
		{"last message", "objective 1\nobjective .5\n", nil, model.Objective(0.5), nil},
		{"nothing", "infeasible problem\n", nil, nil, nil},
		{"values", "VALUE a=1\nVALUE b[1]=x\nVALUE broken\n", nil, nil, map[string]string{"a": "1", "b[1]": "x"}},
		{"subscript with equals", "VALUE x['a=b']=3\nVALUE x['a']=4\n", []string{"x['a']", "x['a=b']"}, nil,
			map[string]string{"x['a=b']": "3", "x['a']": "4"}},
		{"string value with equals", "VALUE note=k=v\n", []string{"note"}, nil, map[string]string{"note": "k=v"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, values := parseOutput(tt.out, tt.names)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.InDelta(t, *tt.want, *got, 1e-12)
			}
			assert.Equal(t, tt.values, values)
		})
	}
}
