package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// Init configures the process logger for JSON output at LOG_LEVEL.
func Init() {
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	Log.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))
}

func parseLevel(level string) logrus.Level {
	if level == "" {
		return logrus.InfoLevel
	}
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return logLevel
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}
