// Package logging configures the process-wide slog logger.
package logging

import (
	"log/slog"
	"os"
)

// SetupJSON installs a JSON handler on slog's default logger at the
// given level. Call once, early in main.
func SetupJSON(level slog.Level) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
