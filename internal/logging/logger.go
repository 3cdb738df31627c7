package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// New creates a logrus logger configured for the valuation engines. Output
// is JSON so batch diagnostics (skipped samples, grid cells) can be
// aggregated downstream.
func New(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(ParseLevel(level))
	return logger
}

// NewNop creates a logger that discards everything. Used as the default
// when a calculator is constructed without an explicit logger.
func NewNop() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// ParseLevel converts a string level to a logrus.Level, defaulting to Info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// WithEngine returns an entry tagged with the calculation engine name.
func WithEngine(logger *logrus.Logger, engine string) *logrus.Entry {
	return logger.WithField("engine", engine)
}

// WithRun returns an entry tagged with the engine name and a batch run ID.
func WithRun(logger *logrus.Logger, engine, runID string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"engine": engine,
		"run_id": runID,
	})
}
