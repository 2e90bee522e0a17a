package monitoring

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// LogConfig selects the zerolog backend for Logf.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	Output io.Writer
}

// NewZerologLogf builds a Logf-compatible function writing through zerolog.
// Messages starting with "error"/"warn"/"debug" (case-insensitive) are logged
// at that level; everything else is info.
func NewZerologLogf(cfg LogConfig) (func(format string, v ...interface{}), error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	switch cfg.Format {
	case "", "console":
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	case "json":
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	zl := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return func(format string, v ...interface{}) {
		msg := strings.TrimSuffix(fmt.Sprintf(format, v...), "\n")
		zl.WithLevel(levelOf(msg)).Msg(msg)
	}, nil
}

// UseZerolog installs a zerolog-backed Logf.
func UseZerolog(cfg LogConfig) error {
	f, err := NewZerologLogf(cfg)
	if err != nil {
		return err
	}
	SetLogger(f)
	return nil
}

func levelOf(msg string) zerolog.Level {
	lower := strings.ToLower(msg)
	switch {
	case strings.HasPrefix(lower, "error"):
		return zerolog.ErrorLevel
	case strings.HasPrefix(lower, "warn"):
		return zerolog.WarnLevel
	case strings.HasPrefix(lower, "debug"):
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
