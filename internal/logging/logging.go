// Package logging builds the process logger: slog text output on stderr,
// optionally teed into a size-rotated log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/unklstewy/flightwall/pkg/config"
)

// Logger is a slog.Logger that owns its rotating file, if any.
type Logger struct {
	*slog.Logger
	LogFile string

	file *lumberjack.Logger
}

// New creates a logger for cfg and installs it as the slog default.
// Output always goes to stderr; cfg.File adds a rotating file.
func New(cfg config.LoggingConfig) *Logger {
	return newLogger(cfg, os.Stderr)
}

// NewFileOnly is New without stderr output, for full-screen terminal UIs.
func NewFileOnly(cfg config.LoggingConfig) *Logger {
	return newLogger(cfg, io.Discard)
}

func newLogger(cfg config.LoggingConfig, stderr io.Writer) *Logger {
	lvl, ok := ParseLevel(cfg.Level)
	if !ok {
		fmt.Fprintf(stderr, "%s: invalid log level, using info\n", cfg.Level)
	}

	l := &Logger{}
	w := stderr
	if cfg.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // MB
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		l.LogFile = cfg.File
		w = io.MultiWriter(stderr, l.file)
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	l.Logger = slog.New(h)
	slog.SetDefault(l.Logger)

	l.Debug("System information",
		slog.String("GOARCH", runtime.GOARCH),
		slog.String("GOOS", runtime.GOOS),
		slog.Int("NumCPUs", runtime.NumCPU()))

	return l
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps debug, info, warn and error to slog levels.
// Unknown names yield info and ok = false.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
