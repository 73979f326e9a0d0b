// Package logging sets up the process logger: logrus on stderr, optionally
// mirrored to a lumberjack rotated file.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level is a logrus level name. Empty means info.
	Level string

	// Verbose forces the debug level.
	Verbose bool

	// JSON selects the JSON formatter for every output.
	JSON bool

	// File is the rotated log file. Empty disables file output.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Console defaults to os.Stderr.
	Console io.Writer
}

// Logger wraps logrus.Logger and owns the rotated file, if any.
type Logger struct {
	*logrus.Logger
	file *lumberjack.Logger
}

// New builds a logger from opts.
func New(opts Options) (*Logger, error) {
	logger := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		lvl, err := logrus.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = lvl
	}
	if opts.Verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	if opts.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	l := &Logger{Logger: logger}
	if opts.File == "" {
		logger.SetOutput(console)
		return l, nil
	}

	l.file = &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	logger.SetOutput(io.MultiWriter(console, l.file))
	return l, nil
}

// WithComponent returns an entry tagged with the component name.
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.WithField("component", component)
}

// Close flushes and closes the rotated file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Discard returns a logger that drops everything. Used by tests and
// library callers that pass no logger.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
