package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/solver-runner/internal/config"
	"github.com/daryltucker/solver-runner/internal/model"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		cfgFile, logLevel, logFormat = "", "", ""
		catalogOverride, solversOverride, modelsOverride, excludeOverride = nil, nil, nil, nil
		outputOverride, amplOverride, timeoutOverride, dryRun = "", "", 0, false
		listTags, listSolver, forceInit = nil, "", false
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeSetup creates a catalog and a config file referencing it.
func writeSetup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cases := filepath.Join(dir, "cases")
	require.NoError(t, os.MkdirAll(cases, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cases, "modellist.yaml"), []byte(`
- name: lp
  objective: 1
  tags: [linear, continuous]
  files: [lp.nl]
- name: mip
  objective: 2
  tags: [linear, integer]
  files: [mip.nl]
- name: qp
  tags: [quadratic]
  files: [qp.nl]
`), 0o644))

	cfgPath := filepath.Join(dir, "runner.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
catalog_dirs: [`+cases+`]
output_dir: `+filepath.Join(dir, "out")+`
log_level: error
solvers:
  - name: lpsolver
    path: /nonexistent/lpsolver
    tags: [linear, continuous, integer]
`), 0o644))
	return cfgPath
}

func TestTagsCommand(t *testing.T) {
	out, err := runCLI(t, "tags")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(model.AllTags())+1)
	assert.Equal(t, []string{"NAME", "ID", "GROUP"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"NA", "0", "not-applicable"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"gurobi_server", "100001", "solver"}, strings.Fields(lines[len(lines)-1]))
}

func TestListModels(t *testing.T) {
	cfgPath := writeSetup(t)

	out, err := runCLI(t, "list-models", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "lp ")
	assert.Contains(t, out, "mip ")
	assert.Contains(t, out, "qp ")
}

func TestListModelsByTag(t *testing.T) {
	cfgPath := writeSetup(t)

	out, err := runCLI(t, "list-models", "--config", cfgPath, "--tag", "integer,quadratic")
	require.NoError(t, err)
	assert.NotContains(t, out, "lp ")
	assert.Contains(t, out, "mip ")
	assert.Contains(t, out, "qp ")
}

func TestListModelsBySolver(t *testing.T) {
	cfgPath := writeSetup(t)

	out, err := runCLI(t, "list-models", "--config", cfgPath, "--solver", "lpsolver")
	require.NoError(t, err)
	assert.Contains(t, out, "lp ")
	assert.Contains(t, out, "mip ")
	assert.NotContains(t, out, "qp ")

	_, err = runCLI(t, "list-models", "--config", cfgPath, "--solver", "cplex")
	assert.ErrorContains(t, err, "not configured")
}

func TestListModelsUnknownTag(t *testing.T) {
	cfgPath := writeSetup(t)

	_, err := runCLI(t, "list-models", "--config", cfgPath, "--tag", "bogus")
	assert.ErrorIs(t, err, model.ErrUnknownTag)
}

func TestRunDryRun(t *testing.T) {
	cfgPath := writeSetup(t)

	_, err := runCLI(t, "run", "--config", cfgPath, "--dry-run")
	require.NoError(t, err)

	outDir := filepath.Join(filepath.Dir(cfgPath), "out")
	data, err := os.ReadFile(filepath.Join(outDir, "solver_results.csv"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), ",planned,"))
	assert.Equal(t, 1, strings.Count(string(data), ",skipped,"))
}

func TestRunUnknownSolver(t *testing.T) {
	cfgPath := writeSetup(t)

	_, err := runCLI(t, "run", "--config", cfgPath, "--solvers", "cplex")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRunReportsFailures(t *testing.T) {
	cfgPath := writeSetup(t)

	_, err := runCLI(t, "run", "--config", cfgPath, "--models", "lp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 solver runs did not pass")
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "solver_runner.yaml")

	_, err := runCLI(t, "config", "init", target)
	require.NoError(t, err)

	cfg, err := config.Load(target)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	_, err = runCLI(t, "config", "init", target)
	assert.ErrorContains(t, err, "already exists")

	_, err = runCLI(t, "config", "init", target, "--force")
	assert.NoError(t, err)
}
