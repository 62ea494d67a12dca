// Package logging builds the slog logger shared by the plane-tracker hosts.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/unklstewy/plane-tracker/pkg/config"
)

// Logger is a slog.Logger plus the file it writes to, if any.
type Logger struct {
	*slog.Logger
	LogFile string

	closer io.Closer
}

// Close releases the rotated log file. It is a no-op for stdout loggers.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// ParseLevel maps debug, info, warn or error to a slog level (default info).
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger from cfg. name is the program name and becomes the log
// file name when output is "file". forceFile sends output to a file even when
// cfg asks for stdout; full-screen terminal programs own stdout.
func New(cfg config.LoggingConfig, name string, forceFile bool) *Logger {
	var w io.Writer = os.Stdout
	l := &Logger{}

	if forceFile || strings.EqualFold(cfg.Output, "file") {
		dir := cfg.Dir
		if dir == "" {
			dir = "."
		}
		lj := &lumberjack.Logger{
			Filename:   filepath.Join(dir, name+".log"),
			MaxSize:    cfg.MaxSizeMB, // MB
			MaxBackups: cfg.MaxBackups,
		}
		w = lj
		l.LogFile = lj.Filename
		l.closer = lj
	}

	l.Logger = slog.New(newHandler(w, cfg))
	l.Info("logging started",
		slog.String("program", name),
		slog.String("GOOS", runtime.GOOS),
		slog.String("GOARCH", runtime.GOARCH))

	return l
}

// NewWriter creates a logger writing to w. Used by tests and by hosts that
// capture log output themselves.
func NewWriter(w io.Writer, cfg config.LoggingConfig) *Logger {
	return &Logger{Logger: slog.New(newHandler(w, cfg))}
}

func newHandler(w io.Writer, cfg config.LoggingConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}
