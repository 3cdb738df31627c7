package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"info", logrus.InfoLevel},
		{"", logrus.InfoLevel},
		{"unknown", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestNew(t *testing.T) {
	logger := New("debug")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestWithEngine(t *testing.T) {
	entry := WithEngine(NewNop(), "lbo")
	assert.Equal(t, "lbo", entry.Data["engine"])
}

func TestWithRun(t *testing.T) {
	entry := WithRun(NewNop(), "dcf", "run-123")
	assert.Equal(t, "dcf", entry.Data["engine"])
	assert.Equal(t, "run-123", entry.Data["run_id"])
}
