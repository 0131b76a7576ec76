package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB   = 5
	maxAgeDays  = 14
	maxBackups  = 10
	compressOld = true
)

// ParseLevel maps debug, info, warn and error (any case) to a slog level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the default slog logger and returns a closer for the log file.
//
// With an empty file, logs go to stderr as text. Otherwise they go to a rotating
// JSON log at file. LOG_LEVEL overrides level when set.
func Setup(level, file string) (io.Closer, error) {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	if file == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return nil, err
	}
	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSizeMB,
		MaxAge:     maxAgeDays,
		MaxBackups: maxBackups,
		Compress:   compressOld,
		LocalTime:  true,
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(rotator, opts)))
	return rotator, nil
}
