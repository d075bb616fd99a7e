package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewStderrLogger builds the logger for batch commands whose stdout carries
// their result. Services use storm-data-shared's NewLogger, which writes to
// stdout. level and format follow the same LOG_LEVEL and LOG_FORMAT values.
func NewStderrLogger(level, format string) *slog.Logger {
	return newLogger(os.Stderr, level, format)
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
