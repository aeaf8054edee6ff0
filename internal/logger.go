package internal

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

var testLogger *slog.Logger

func init() {
	testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	if os.Getenv("SMOLAGENT_TEST_LOG") == "1" {
		testLogger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.TimeOnly,
		}))
	}
}

// TestLogger returns the logger for tests. Output is discarded unless SMOLAGENT_TEST_LOG=1.
func TestLogger() *slog.Logger {
	return testLogger
}
