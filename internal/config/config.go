/*
PURPOSE:
  Defines the configuration structure and loading logic for the solver runner.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Configure catalog directories, solvers and their supported tags, timeouts.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Needs environment variable overrides (SOLVER_RUNNER_...), see env.go.
  - Solver tag lists decode straight into model.TagSet, so typos fail early.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine
  - Dependencies: gopkg.in/yaml.v3, github.com/spf13/viper (env.go)

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - A missing default file is not an error; defaults are used.
  - Validate() wraps ErrInvalidConfig.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults should be sensible (e.g., 60s timeout).

USAGE:
  cfg, err := config.Load("solver_runner.yaml")

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct and update DefaultConfig().

RELATED FILES:
  - internal/config/env.go
  - internal/cli/root.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/daryltucker/solver-runner/internal/model"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultFiles are searched, in order, when no config path is given.
var DefaultFiles = []string{"solver_runner.yaml", "runner.yaml"}

// Solver describes one solver configuration under test.
type Solver struct {
	Name string `yaml:"name"`
	// Path is the solver executable (an AMPL solver driver).
	Path string `yaml:"path"`
	// Args are passed before the model file.
	Args []string `yaml:"args,omitempty"`
	// Tags lists the features the solver supports. Models must be a subset.
	Tags model.TagSet `yaml:"tags"`
	// ExcludeTags rejects models carrying any of these tags.
	ExcludeTags model.TagSet `yaml:"exclude_tags,omitempty"`
	// Options is the base option string for every model.
	Options string        `yaml:"options,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// NLOnly solvers never get .mod or script models, even with AMPL available.
	NLOnly bool `yaml:"nl_only,omitempty"`
}

// Config represents the full configuration for the solver runner.
type Config struct {
	CatalogDirs []string `yaml:"catalog_dirs"`
	Recursive   bool     `yaml:"recursive"`
	OutputDir   string   `yaml:"output_dir"`
	OutputFile  string   `yaml:"output_file"`
	// AMPL is the AMPL executable used for .mod models and scripts.
	// Empty disables them.
	AMPL      string        `yaml:"ampl"`
	Timeout   time.Duration `yaml:"timeout"`
	Tolerance float64       `yaml:"tolerance"`
	// Exclude is a list of strings to filter model names (substring match)
	Exclude []string `yaml:"exclude,omitempty"`
	// Models restricts the run to these model names.
	Models    []string `yaml:"models,omitempty"`
	Solvers   []Solver `yaml:"solvers"`
	LogLevel  string   `yaml:"log_level"`
	LogFormat string   `yaml:"log_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CatalogDirs: []string{"tests"},
		Recursive:   true,
		OutputDir:   ".",
		OutputFile:  "solver_results.csv",
		AMPL:        "",
		Timeout:     60 * time.Second,
		Tolerance:   1e-5,
		Solvers: []Solver{
			{
				Name: "highs",
				Path: "highs",
				Tags: model.NewTagSet(
					model.Linear, model.Quadratic, model.Continuous,
					model.Integer, model.Binary, model.Logical,
					model.PLinear, model.ReturnMIPGap, model.Unbdd,
				),
			},
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches DefaultFiles in order.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		for _, name := range DefaultFiles {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name // record which file we loaded
				break
			}
		}
	}

	if path != "" {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration for values the engine cannot work with.
func (c *Config) Validate() error {
	var problems []string

	if c.Timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if c.Tolerance < 0 {
		problems = append(problems, "tolerance must not be negative")
	}
	if c.OutputFile == "" {
		problems = append(problems, "output_file must be set")
	}

	seen := make(map[string]bool, len(c.Solvers))
	for i, s := range c.Solvers {
		switch {
		case s.Name == "":
			problems = append(problems, fmt.Sprintf("solvers[%d]: name is required", i))
		case seen[s.Name]:
			problems = append(problems, fmt.Sprintf("solvers[%d]: duplicate name %q", i, s.Name))
		}
		seen[s.Name] = true
		if s.Path == "" {
			problems = append(problems, fmt.Sprintf("solver %q: path is required", s.Name))
		}
		if s.Tags == nil {
			problems = append(problems, fmt.Sprintf("solver %q: tags must list the supported features", s.Name))
		}
		if s.Timeout < 0 {
			problems = append(problems, fmt.Sprintf("solver %q: timeout must not be negative", s.Name))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(problems, "\n  - "))
	}
	return nil
}

// Solver returns the solver configuration with the given name.
func (c *Config) Solver(name string) (Solver, bool) {
	for _, s := range c.Solvers {
		if s.Name == name {
			return s, true
		}
	}
	return Solver{}, false
}

// SelectSolvers keeps only the named solvers, in the given order.
func (c *Config) SelectSolvers(names []string) error {
	selected := make([]Solver, 0, len(names))
	for _, n := range names {
		s, ok := c.Solver(n)
		if !ok {
			return fmt.Errorf("%w: solver %q is not configured", ErrInvalidConfig, n)
		}
		selected = append(selected, s)
	}
	c.Solvers = selected
	return nil
}

// SolverTimeout returns the solver's own timeout or the global one.
func (c *Config) SolverTimeout(s Solver) time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return c.Timeout
}
