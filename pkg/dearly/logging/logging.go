// Package logging provides structured component loggers for the dearly
// toolkit, backed by charmbracelet/log.
//
// Basic usage:
//
//	cfg := logging.Config{Level: "info"}
//	if err := logging.Init(cfg); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
//	logger := logging.Get("container")
//	logger.Info("export complete", "card", id)
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level string into a charmbracelet/log level.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel, nil
	case "info", "":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty logs to stderr.
	Path string

	// Components maps component names to per-component level overrides.
	Components map[string]string
}

var (
	mu         sync.Mutex
	baseLevel  = log.InfoLevel
	overrides  map[string]log.Level
	sink       io.Writer = os.Stderr
	file       *os.File
	components = make(map[string]*log.Logger)
)

// Init configures the logging system. Safe to call once at startup;
// loggers obtained earlier keep writing to stderr at info level.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	baseLevel = level

	overrides = make(map[string]log.Level, len(cfg.Components))
	for name, levelStr := range cfg.Components {
		componentLevel, err := ParseLevel(levelStr)
		if err != nil {
			return fmt.Errorf("component %s: %w", name, err)
		}
		overrides[name] = componentLevel
	}

	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		file = f
		sink = f
	}

	// Re-level loggers handed out before Init ran.
	for name, logger := range components {
		logger.SetOutput(sink)
		logger.SetLevel(levelFor(name))
	}
	return nil
}

// Close flushes and closes the log file if one is open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	sink = os.Stderr
	return err
}

// Get returns the logger for a component, creating it on first use.
func Get(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	if logger, ok := components[component]; ok {
		return logger
	}
	logger := log.NewWithOptions(sink, log.Options{
		Prefix:          component,
		ReportTimestamp: true,
	})
	logger.SetLevel(levelFor(component))
	components[component] = logger
	return logger
}

// levelFor resolves the effective level for a component. Callers hold mu.
func levelFor(component string) log.Level {
	if level, ok := overrides[component]; ok {
		return level
	}
	return baseLevel
}

// DefaultLogPath returns the default log file location under the XDG
// state directory.
func DefaultLogPath() string {
	path, err := xdg.StateFile("dearly/dearly.log")
	if err != nil {
		return filepath.Join(os.TempDir(), "dearly.log")
	}
	return path
}
