// Package logging configures the process-wide logrus logger from config.
// Diagnostics (provider calls, per-peer match scores, skip warnings) go
// through logrus; the valuation report itself is plain console output.
package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/seenimoa/compval/internal/config"
)

// Setup applies the logging configuration to the standard logrus logger.
// Unknown levels fall back to info rather than failing the run.
func Setup(cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	switch cfg.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
		})
	}
}
