package logging

import (
	"io"
	"log/slog"
	"strings"
)

// New builds the application logger. Runs are long and interactive, so the
// text handler goes to stderr and stdout stays clean for command output.
func New(level string, w io.Writer) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return slog.New(handler)
}

// ForWallet returns a child logger carrying the wallet address; every leaf
// action and pipeline attempt logs through it instead of a package-level
// logger bound at construction time.
func ForWallet(logger *slog.Logger, address string) *slog.Logger {
	return logger.With("wallet", address)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
