// Package logger configures the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var log = logrus.New()

// Init configures the global logger. format is "json" or "text"; an empty
// filePath logs to stderr only, otherwise output is duplicated to a
// size-rotated file.
func Init(level, format, filePath string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	default:
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	var out io.Writer = os.Stderr
	if filePath != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		})
	}
	log.SetOutput(out)
}

// L returns the global logger.
func L() *logrus.Logger {
	return log
}

// WithComponent returns an entry tagged with the originating component.
func WithComponent(component string) *logrus.Entry {
	return log.WithField("component", component)
}
