// Package logging installs the process-wide slog handler for the ownshare
// engine. Records go to stderr through tint as colored single-line output,
// which keeps the scheduler's nightly job logs readable next to request-less
// service logs. The level comes from OWNSHARE_LOG_LEVEL (debug, info, warn,
// error; default info) unless the caller overrides it.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs the default handler at the level named by the
// OWNSHARE_LOG_LEVEL environment variable.
func Setup() {
	SetupWithLevel(levelFromEnv())
}

// SetupWithLevel installs the default handler at the given level. Source
// locations are only attached at debug level; they are noise in routine
// job-run output.
func SetupWithLevel(level slog.Level) {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
			AddSource:  level <= slog.LevelDebug,
		}),
	))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("OWNSHARE_LOG_LEVEL")) {
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
