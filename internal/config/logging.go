// internal/config/logging.go
package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger creates a dual-output logger: human-readable text to the log
// file, JSON to a sibling .json file for machine parsing. The TUI owns the
// terminal, so nothing is ever written to stderr while the program runs.
// Returns the logger and a cleanup function to close the files.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	if logFile == "" {
		// No file configured: discard logs rather than corrupt the alt screen
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})), func() error { return nil }
	}

	textFile, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})), func() error { return nil }
	}

	jsonFile, err := os.OpenFile(logFile+".json", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// Fall back to text-only if the JSON sink fails
		return slog.New(slog.NewTextHandler(textFile, &slog.HandlerOptions{Level: level})), textFile.Close
	}

	textHandler := slog.NewTextHandler(textFile, &slog.HandlerOptions{Level: level})
	jsonHandler := slog.NewJSONHandler(jsonFile, &slog.HandlerOptions{Level: level})

	logger := slog.New(slogmulti.Fanout(textHandler, jsonHandler))

	cleanup := func() error {
		terr := textFile.Close()
		jerr := jsonFile.Close()
		if terr != nil {
			return terr
		}
		return jerr
	}

	return logger, cleanup
}

// SetupLoggerWithWriters creates a logger with custom writers (for testing).
func SetupLoggerWithWriters(text, jsonOut io.Writer, level slog.Level) *slog.Logger {
	textHandler := slog.NewTextHandler(text, &slog.HandlerOptions{Level: level})
	jsonHandler := slog.NewJSONHandler(jsonOut, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(textHandler, jsonHandler))
}
