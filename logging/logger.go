package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

func BootstrapLogger() {
	level := logrus.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := logrus.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	Log = &logrus.Logger{
		Formatter: &logrus.TextFormatter{
			FullTimestamp: true,
		},
		Level: level,
	}

	Log.SetReportCaller(true)
	Log.Out = os.Stdout
}
