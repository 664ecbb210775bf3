package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON to stdout keeps log
// shipping simple in containers.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
