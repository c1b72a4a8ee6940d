package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logg *logrus.Logger

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logrus.InfoLevel)
	logg.SetOutput(os.Stdout)
}

// LogError records a handler failure with enough context to find it again.
// The caller is expected to return a generic message to the client.
func LogError(module string, handler string, context string, err error) {
	logg.WithFields(logrus.Fields{
		"module":  module,
		"handler": handler,
		"context": context,
	}).Error(err.Error())
}
