package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/timada-org/reelay/internal/core"
)

func newLogger(config core.Log) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	logger.SetLevel(level)

	switch config.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("log format: unknown %q", config.Format)
	}

	return logger, nil
}
