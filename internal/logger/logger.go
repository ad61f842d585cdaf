// Package logger provides the process-wide structured logger.
//
// Output is either human-oriented colored text (the default when stderr
// is a terminal) or JSON records for log collectors, switched by the
// --log-json flag or the logging.format config key. The logger is global
// because every pipeline component logs: worker goroutines, finalizers,
// and cleanup paths that have no way to thread a logger value through.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config controls logger behavior.
type Config struct {
	// Level is the minimum level to emit: DEBUG, INFO, WARN, ERROR.
	Level string

	// Format is "text" or "json".
	Format string

	// Output is "stderr", "stdout", or a file path.
	Output string
}

var (
	mu       sync.RWMutex
	slogger  *slog.Logger
	output   io.Writer
	level    = new(slog.LevelVar)
	format   = "text"
	useColor bool
)

func init() {
	output = os.Stderr
	useColor = isTerminal(os.Stderr.Fd())
	level.Set(slog.LevelInfo)
	rebuild()
}

// rebuild swaps the handler for the current output/format settings.
// Callers must hold mu.
func rebuild() {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		slogger = slog.New(slog.NewJSONHandler(output, opts))
	} else {
		slogger = slog.New(newTextHandler(output, opts, useColor))
	}
}

// Init configures the global logger. Unset fields keep their current
// values.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		output = os.Stderr
		useColor = isTerminal(os.Stderr.Fd())
	case "stdout":
		output = os.Stdout
		useColor = isTerminal(os.Stdout.Fd())
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file %q: %w", cfg.Output, err)
		}
		output = f
		useColor = false
	}

	if cfg.Level != "" {
		lvl, err := parseLevel(cfg.Level)
		if err != nil {
			return err
		}
		level.Set(lvl)
	}

	if cfg.Format != "" {
		f := strings.ToLower(cfg.Format)
		if f != "text" && f != "json" {
			return fmt.Errorf("invalid log format %q (valid: text, json)", cfg.Format)
		}
		format = f
	}

	rebuild()
	return nil
}

// InitWithWriter points the logger at an arbitrary writer. Test hook.
func InitWithWriter(w io.Writer, levelName, formatName string) {
	mu.Lock()
	defer mu.Unlock()

	output = w
	useColor = false
	if levelName != "" {
		if lvl, err := parseLevel(levelName); err == nil {
			level.Set(lvl)
		}
	}
	if formatName != "" {
		format = strings.ToLower(formatName)
	}
	rebuild()
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q (valid: DEBUG, INFO, WARN, ERROR)", name)
	}
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// Debug logs at debug level with key/value pairs.
func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

// Info logs at info level with key/value pairs.
func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

// Warn logs at warn level with key/value pairs.
func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

// Error logs at error level with key/value pairs.
func Error(msg string, args ...any) {
	get().Error(msg, args...)
}
