package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/solver-runner/internal/model"
)

const sampleConfig = `
catalog_dirs: [cases/lp, cases/mip]
output_dir: out
ampl: /opt/ampl/ampl
timeout: 30s
tolerance: 1e-6
exclude: [huge]
solvers:
  - name: gurobi
    path: /opt/ampl/gurobi
    tags: [linear, quadratic, continuous, integer, sos, iis]
    exclude_tags: [gurobi_cloud]
    options: outlev=0
    timeout: 2m
  - name: highs
    path: highs
    tags: [linear, continuous]
    nl_only: true
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cfg.yaml", sampleConfig)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"cases/lp", "cases/mip"}, cfg.CatalogDirs)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, "solver_results.csv", cfg.OutputFile, "unset keys keep defaults")
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.InDelta(t, 1e-6, cfg.Tolerance, 0)
	require.Len(t, cfg.Solvers, 2)

	gurobi := cfg.Solvers[0]
	assert.True(t, model.NewTagSet(model.Linear, model.Quadratic, model.Continuous,
		model.Integer, model.SOS, model.IIS).Equal(gurobi.Tags))
	assert.True(t, gurobi.ExcludeTags.Has(model.GurobiCloud))
	assert.Equal(t, 2*time.Minute, cfg.SolverTimeout(gurobi))

	highs, ok := cfg.Solver("highs")
	require.True(t, ok)
	assert.True(t, highs.NLOnly)
	assert.Equal(t, 30*time.Second, cfg.SolverTimeout(highs))
}

func TestLoadUnknownTag(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cfg.yaml", `
solvers:
  - name: x
    path: x
    tags: [linear, lineer]
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnknownTag)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().CatalogDirs, cfg.CatalogDirs)
	require.NoError(t, cfg.Validate())
}

func TestLoadSearchesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, dir, "runner.yaml", "output_dir: from-runner\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-runner", cfg.OutputDir)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvVar("catalog_dirs"), "a, b,,c")
	t.Setenv(EnvVar("timeout"), "5s")
	t.Setenv(EnvVar("tolerance"), "0.01")
	t.Setenv(EnvVar("ampl"), "/usr/bin/ampl")
	t.Setenv(EnvVar("recursive"), "false")

	path := writeFile(t, t.TempDir(), "cfg.yaml", sampleConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, cfg.CatalogDirs)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.InDelta(t, 0.01, cfg.Tolerance, 0)
	assert.Equal(t, "/usr/bin/ampl", cfg.AMPL)
	assert.False(t, cfg.Recursive)
}

func TestEnvOverrideInvalid(t *testing.T) {
	t.Setenv(EnvVar("timeout"), "soon")
	chdir(t, t.TempDir())

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "SOLVER_RUNNER_TIMEOUT")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout must be positive"},
		{"negative tolerance", func(c *Config) { c.Tolerance = -1 }, "tolerance"},
		{"no output file", func(c *Config) { c.OutputFile = "" }, "output_file"},
		{"unnamed solver", func(c *Config) { c.Solvers[0].Name = "" }, "name is required"},
		{"duplicate solver", func(c *Config) { c.Solvers = append(c.Solvers, c.Solvers[0]) }, "duplicate name"},
		{"no path", func(c *Config) { c.Solvers[0].Path = "" }, "path is required"},
		{"no tags", func(c *Config) { c.Solvers[0].Tags = nil }, "tags must list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSelectSolvers(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cfg.yaml", sampleConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, cfg.SelectSolvers([]string{"highs"}))
	require.Len(t, cfg.Solvers, 1)
	assert.Equal(t, "highs", cfg.Solvers[0].Name)

	err = cfg.SelectSolvers([]string{"cplex"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, DefaultConfig()))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
