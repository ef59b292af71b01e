package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/Scalingo/ghlangstats/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestStringToLogrusLogType(t *testing.T) {
	tests := []struct {
		level    string
		expected logrus.Level
	}{
		{level: "error", expected: logrus.ErrorLevel},
		{level: "WARN", expected: logrus.WarnLevel},
		{level: "warning", expected: logrus.WarnLevel},
		{level: " Info ", expected: logrus.InfoLevel},
		{level: "debug", expected: logrus.DebugLevel},
		{level: "trace", expected: logrus.TraceLevel},
		{level: "verbose", expected: logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, StringToLogrusLogType(tt.level))
		})
	}
}

func TestSetupJSON(t *testing.T) {
	cfg := config.GetDefault()
	cfg.Logs.OutputLogsAsJSON = true
	cfg.Logs.Level = "warn"

	var buf bytes.Buffer
	Setup(*cfg, &buf)
	defer func() {
		logrus.SetFormatter(&logrus.TextFormatter{})
		logrus.SetOutput(os.Stderr)
	}()

	logrus.Warn("rate limit low")
	logrus.Info("hidden")

	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	assert.Contains(t, buf.String(), `"msg":"rate limit low"`)
	assert.NotContains(t, buf.String(), "hidden")
}
