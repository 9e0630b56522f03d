package pixaloop

import (
	"log/slog"

	"github.com/pierkiroule/Pixaloop/internal/logging"
)

// SetLogger configures the logger for pixaloop and all its sub-packages.
// By default, pixaloop produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by pixaloop:
//   - [slog.LevelDebug]: internal diagnostics (field rebuilds, skipped frames)
//   - [slog.LevelInfo]: lifecycle events (recording started and finished)
//   - [slog.LevelWarn]: non-fatal issues (CPU fallback, encoder unavailable)
//   - [slog.LevelError]: failed recordings and initialization
//
// Example:
//
//	pixaloop.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return logging.Logger()
}
