package logger

import (
	"context"
	"io"
	"log"
	"strings"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
)

// Logger is a leveled printf-style logger. The context selects the output so
// Cloud Functions execution IDs follow the request.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...interface{})
	Info(ctx context.Context, msg string, args ...interface{})
	Warn(ctx context.Context, msg string, args ...interface{})
	Error(ctx context.Context, msg string, args ...interface{})
}

var levels = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

type implLogger struct {
	writer func(ctx context.Context) io.Writer
	level  int
}

// New creates a Logger writing through funcframework.LogWriter.
func New(level string) Logger {
	return newLogger(level, func(ctx context.Context) io.Writer { return funcframework.LogWriter(ctx) })
}

// NewWithWriter creates a Logger that writes every entry to w.
func NewWithWriter(level string, w io.Writer) Logger {
	return newLogger(level, func(context.Context) io.Writer { return w })
}

func newLogger(level string, writer func(ctx context.Context) io.Writer) Logger {
	lvl, ok := levels[strings.ToLower(level)]
	if !ok {
		lvl = levels["info"]
	}
	return &implLogger{writer: writer, level: lvl}
}

func (l *implLogger) logf(ctx context.Context, level, msg string, args ...interface{}) {
	if levels[level] < l.level {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	out := log.New(l.writer(ctx), "", log.LstdFlags)
	out.Printf("["+strings.ToUpper(level)+"] "+msg, args...)
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.logf(ctx, "debug", msg, args...)
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.logf(ctx, "info", msg, args...)
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.logf(ctx, "warn", msg, args...)
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.logf(ctx, "error", msg, args...)
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return NewWithWriter("error", io.Discard)
}
