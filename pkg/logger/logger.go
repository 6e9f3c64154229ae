package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a new logger with the specified log level and format
// ("text" or "json")
func New(level, format string) *logrus.Logger {
	return NewWithOutput(level, format, os.Stdout)
}

// NewWithOutput is New writing to out
func NewWithOutput(level, format string, out io.Writer) *logrus.Logger {
	logger := logrus.New()

	// Set log level
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set formatter
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	logger.SetOutput(out)

	return logger
}

// Discard returns a logger that drops everything, for tests
func Discard() *logrus.Logger {
	return NewWithOutput("panic", "text", io.Discard)
}

// WithFields creates a logger entry with the specified fields
func WithFields(logger *logrus.Logger, fields logrus.Fields) *logrus.Entry {
	return logger.WithFields(fields)
}
