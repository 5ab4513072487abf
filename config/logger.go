package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the JSON logrus logger shared by every component.
// An unknown level falls back to info.
func NewLogger(level string) *logrus.Logger {
	log := logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}
