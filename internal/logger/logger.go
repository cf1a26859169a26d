package logger

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

func parseLevel(s string) level {
	switch strings.ToLower(s) {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

type implLogger struct {
	logger *log.Logger
	level  level
}

// New creates a Logger writing to stdout at the given minimum level.
func New(levelName string) Logger {
	return NewWithWriter(levelName, os.Stdout)
}

// NewWithWriter creates a Logger writing to the supplied writer. Tests use
// this to capture output.
func NewWithWriter(levelName string, w io.Writer) Logger {
	return &implLogger{
		logger: log.New(w, "", log.LstdFlags),
		level:  parseLevel(levelName),
	}
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	if l.level <= levelDebug {
		l.logger.Printf("[DEBUG] "+msg, args...)
	}
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level <= levelInfo {
		l.logger.Printf("[INFO] "+msg, args...)
	}
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level <= levelWarn {
		l.logger.Printf("[WARN] "+msg, args...)
	}
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level <= levelError {
		l.logger.Printf("[ERROR] "+msg, args...)
	}
}
