package lib

import (
	"log/slog"
	"os"
)

var (
	logger   *slog.Logger
	logLevel = new(slog.LevelVar)
)

func init() {
	logLevel.Set(slog.LevelInfo)
	if os.Getenv("DEBUG") != "" {
		logLevel.Set(slog.LevelDebug)
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// Logger returns the package logger, for wiring into other packages.
func Logger() *slog.Logger {
	return logger
}

// SetVerbose switches debug logging on.
func SetVerbose(verbose bool) {
	if verbose {
		logLevel.Set(slog.LevelDebug)
	}
}
