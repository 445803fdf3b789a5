/*
PURPOSE:
  Applies SOLVER_RUNNER_* environment variables on top of the loaded config.

REQUIREMENTS:
  User-specified:
  - CI jobs override catalog dirs, output location, AMPL path and timeouts
    without editing the config file.

  Implementation-discovered:
  - Each key has an explicit binding; viper only reads the environment here.
  - List values are comma separated.

ARCHITECTURE INTEGRATION:
  - Called by: Load
  - Dependencies: github.com/spf13/viper

ERROR HANDLING:
  - Every unparsable value is collected; the joined list wraps ErrInvalidConfig.

USAGE:
  SOLVER_RUNNER_TIMEOUT=2m SOLVER_RUNNER_AMPL=/opt/ampl/ampl solver-runner run

RELATED FILES:
  - internal/config/config.go
*/

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SOLVER_RUNNER"

// envBinding ties a config key to its environment variable and setter.
type envBinding struct {
	ConfigKey string
	Apply     func(cfg *Config, value string) error
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"catalog_dirs", func(c *Config, v string) error { c.CatalogDirs = splitList(v); return nil }},
		{"recursive", func(c *Config, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("invalid boolean value '%s'", v)
			}
			c.Recursive = b
			return nil
		}},
		{"output_dir", func(c *Config, v string) error { c.OutputDir = v; return nil }},
		{"output_file", func(c *Config, v string) error { c.OutputFile = v; return nil }},
		{"ampl", func(c *Config, v string) error { c.AMPL = v; return nil }},
		{"timeout", func(c *Config, v string) error {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			c.Timeout = d
			return nil
		}},
		{"tolerance", func(c *Config, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("invalid tolerance: %w", err)
			}
			c.Tolerance = f
			return nil
		}},
		{"exclude", func(c *Config, v string) error { c.Exclude = splitList(v); return nil }},
		{"log_level", func(c *Config, v string) error { c.LogLevel = v; return nil }},
		{"log_format", func(c *Config, v string) error { c.LogFormat = v; return nil }},
	}
}

// EnvVar returns the environment variable name for a config key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}

// applyEnv overrides cfg with every bound environment variable that is set.
func applyEnv(cfg *Config) error {
	v := viper.New()
	var warnings []string

	for _, binding := range getEnvBindings() {
		env := EnvVar(binding.ConfigKey)
		if err := v.BindEnv(binding.ConfigKey, env); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", env, err))
			continue
		}
		if !v.IsSet(binding.ConfigKey) {
			continue
		}
		value := v.GetString(binding.ConfigKey)
		if err := binding.Apply(cfg, value); err != nil {
			warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", env, value, err))
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("%w: environment variable issues:\n  - %s", ErrInvalidConfig, strings.Join(warnings, "\n  - "))
	}
	return nil
}

// splitList splits a comma separated value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
