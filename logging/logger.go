// Package logging holds the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger configured by Init.
var Logger = logrus.New()

// Options configures Init.
type Options struct {
	Level  string
	Format string
	// File enables a rotated log file next to stderr when non-empty.
	File string
}

// Init applies opts to Logger. It returns the rotating writer, if any, so the
// caller can close it on shutdown.
func Init(opts Options) (io.Closer, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		l, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = l
	}
	Logger.SetLevel(level)

	switch opts.Format {
	case "", "text":
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	if opts.File == "" {
		Logger.SetOutput(os.Stderr)
		return nil, nil
	}

	logFile := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	Logger.SetOutput(io.MultiWriter(os.Stderr, logFile))
	return logFile, nil
}
