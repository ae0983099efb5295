package main

import (
	"log/slog"
	"os"
)

// setupLogger returns a text logger on stderr. Only warnings and errors are
// shown unless --verbose is set.
func setupLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
