/*
PURPOSE:
  Provides a structured logger for the solver runner.
  Wraps slog for consistent output.

REQUIREMENTS:
  User-specified:
  - "Sane" CLI output. Not spammy.

  Implementation-discovered:
  - Needs configurable levels (debug for per-model decisions).
  - JSON handler for non-interactive runs (CI logs).

ARCHITECTURE INTEGRATION:
  - Used everywhere.
  - Configured by: internal/cli (persistent flags / config keys)

ERROR HANDLING:
  - Configure rejects unknown levels and formats.

IMPLEMENTATION RULES:
  - Use `log/slog` (Go 1.21+).

USAGE:
  output.Logger.Info("message", "key", "value")
*/

package output

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var Logger *slog.Logger

func init() {
	// Default generic logger, replaced by Configure once flags are parsed.
	Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// SetLogger allows overriding the default logger (e.g. for testing or config changes)
func SetLogger(l *slog.Logger) {
	Logger = l
}

// Configure replaces Logger with a handler of the given format ("text" or
// "json") and minimum level ("debug", "info", "warn", "error").
func Configure(w io.Writer, level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		SetLogger(slog.New(slog.NewTextHandler(w, opts)))
	case "json":
		SetLogger(slog.New(slog.NewJSONHandler(w, opts)))
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", format)
	}
	return nil
}

// ParseLevel converts a level name into a slog.Level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}
