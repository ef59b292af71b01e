package logger

import (
	"io"
	"strings"

	"github.com/Scalingo/ghlangstats/config"
	"github.com/sirupsen/logrus"
)

// Setup will configure logrus logger
// the generate command logs to stderr so that stdout only carries the rendered table
func Setup(cfg config.Config, out io.Writer) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if cfg.Logs.OutputLogsAsJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	if out != nil {
		logrus.SetOutput(out)
	}

	logrus.SetLevel(StringToLogrusLogType(cfg.Logs.Level))
}

// StringToLogrusLogType will convert string to the right logrus level
// unknown values fall back to error to keep the output quiet
func StringToLogrusLogType(logLevel string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "error":
		return logrus.ErrorLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	case "trace":
		return logrus.TraceLevel
	default:
		return logrus.ErrorLevel
	}
}
