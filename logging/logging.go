// Package logging builds the process logger: JSON slog with a
// config-driven level and file rotation. Logging stays off the hot
// path — engines log at startup, on reconnects, and in periodic and
// shutdown summaries only.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvLevel overrides the configured log level when set.
const EnvLevel = "LITHOS_LOG_LEVEL"

// New returns a JSON logger writing to stderr and a rotated file under
// logDir. level is one of debug/info/warn/error; the LITHOS_LOG_LEVEL
// environment variable wins over it.
func New(level, logDir, name string) *slog.Logger {
	if env := os.Getenv(EnvLevel); env != "" {
		level = env
	}

	var w io.Writer = os.Stderr
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err == nil {
			w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
				Filename:   filepath.Join(logDir, name+".log"),
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			})
		}
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(s string) slog.Level {
	switch s {
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
