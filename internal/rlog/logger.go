// Package rlog wraps log/slog with the level/output/rotation knobs the rest
// of the system needs. Defaults to JSON output, matching an aggregator
// service rather than a debug-first CLI.
package rlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// Config holds logger configuration.
type Config struct {
	Level      Level
	OutputFile string // path to log file; empty means stdout only
	MaxSize    int64  // bytes before rotation, default 10MB
	MaxBackups int    // rotated backups to keep, default 3
	JSONFormat bool   // default true
	AddSource  bool
}

// Logger wraps slog.Logger with rotation and a package-level singleton.
type Logger struct {
	slog   *slog.Logger
	config Config
	file   *os.File
	mu     sync.Mutex
}

var (
	global *Logger
	once   sync.Once
)

// Initialize configures the process-wide logger. Must be called once before
// any component logs; subsequent calls are no-ops.
func Initialize(config Config) error {
	var initErr error
	once.Do(func() {
		l, err := New(config)
		if err != nil {
			initErr = fmt.Errorf("initialize logger: %w", err)
			return
		}
		global = l
	})
	return initErr
}

// Default returns the process-wide logger, initializing a sane stdout/JSON
// default if Initialize was never called (useful in tests).
func Default() *Logger {
	once.Do(func() {
		global, _ = New(Config{Level: INFO, JSONFormat: true})
	})
	if global == nil {
		// Initialize was called and failed; fall back to stdout.
		global, _ = New(Config{Level: INFO, JSONFormat: true})
	}
	return global
}

// New creates a standalone logger instance, not affecting the global one.
func New(config Config) (*Logger, error) {
	if config.MaxSize == 0 {
		config.MaxSize = 10 * 1024 * 1024
	}
	if config.MaxBackups == 0 {
		config.MaxBackups = 3
	}

	l := &Logger{config: config}

	writers := []io.Writer{os.Stdout}
	if config.OutputFile != "" {
		dir := filepath.Dir(config.OutputFile)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
		if err := l.rotateIfNeeded(); err != nil {
			return nil, fmt.Errorf("rotate logs: %w", err)
		}
		file, err := os.OpenFile(config.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", config.OutputFile, err)
		}
		l.file = file
		writers = append(writers, file)
	}

	opts := &slog.HandlerOptions{Level: toSlogLevel(config.Level), AddSource: config.AddSource}
	var handler slog.Handler
	if config.JSONFormat {
		handler = slog.NewJSONHandler(io.MultiWriter(writers...), opts)
	} else {
		handler = slog.NewTextHandler(io.MultiWriter(writers...), opts)
	}
	l.slog = slog.New(handler)
	return l, nil
}

func (l *Logger) rotateIfNeeded() error {
	if l.config.OutputFile == "" {
		return nil
	}
	info, err := os.Stat(l.config.OutputFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < l.config.MaxSize {
		return nil
	}
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	for i := l.config.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", l.config.OutputFile, i)
		newPath := fmt.Sprintf("%s.%d", l.config.OutputFile, i+1)
		if _, err := os.Stat(oldPath); err == nil {
			os.Rename(oldPath, newPath)
		}
	}
	backupPath := fmt.Sprintf("%s.1", l.config.OutputFile)
	return os.Rename(l.config.OutputFile, backupPath)
}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child Logger with the given attributes attached, the way
// slog's With works, for scoping a logger to one component ("fetcher",
// "target", etc).
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), config: l.config}
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// Close releases the underlying log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
