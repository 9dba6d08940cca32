// Package logging configures the process-wide structured logger for the
// pulsemap server. All components log through slog; output is JSON on
// stdout with the level taken from configuration.
package logging

import (
	"fmt"
	"log/slog"
	"os"
)

// Setup installs the default JSON logger at the given level. Unknown level
// strings land on info; config validation rejects them before this runs.
func Setup(level string) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	slog.SetDefault(slog.New(handler))
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

// Fatalf logs at error level and exits. For startup failures only; running
// components degrade and keep serving instead.
func Fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
