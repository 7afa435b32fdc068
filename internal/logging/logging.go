// Package logging provides the logrus logger used by gitbean.
//
// Log format is controlled by the LOG_FORMAT environment variable:
//
//	LOG_FORMAT=text    human-readable key=value pairs (default)
//	LOG_FORMAT=json    structured JSON
//
// Log level is controlled by LOG_LEVEL (debug, info, warn, error; default
// warn). Verbose mode forces debug.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stderr, configured from the environment.
func New(verbose bool) *logrus.Logger {
	return newLogger(os.Stderr, os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"), verbose)
}

func newLogger(out io.Writer, format, level string, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	switch strings.ToLower(format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}

	log.SetLevel(parseLevel(level))
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func parseLevel(s string) logrus.Level {
	switch strings.ToLower(s) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.WarnLevel
	}
}
