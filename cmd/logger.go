package cmd

import (
	"io"
	"log/slog"
)

// NewLogger returns the diagnostics logger. Debug records are emitted only
// when verbose is set.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
