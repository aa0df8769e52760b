package config

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	if os.Getenv("LOG_FORMAT") == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		l.SetLevel(lvl)
	}
	return l
}

func Logger() *logrus.Logger { return logger }

// WithContext returns a request-scoped entry.
func WithContext(ctx context.Context) *logrus.Entry {
	return logger.WithContext(ctx)
}
