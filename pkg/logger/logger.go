package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logger used across the application.
// Key-value pairs follow the message: Info("user registered", "user_id", 1).
type Logger interface {
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	Debug(msg string, keyvals ...interface{})
	SetLevel(level string)
	With(ctx map[string]interface{}) Logger
}

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	zlog zerolog.Logger
}

// New creates a console logger tagged with the service name.
func New(serviceName string) *ZerologLogger {
	return NewWithWriter(serviceName, os.Stdout)
}

// NewWithWriter creates a console logger writing to w.
func NewWithWriter(serviceName string, w io.Writer) *ZerologLogger {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	output.FormatLevel = func(i any) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}

	z := zerolog.New(output).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
	return &ZerologLogger{zlog: z}
}

// NewNop returns a logger that discards everything.
func NewNop() *ZerologLogger {
	return &ZerologLogger{zlog: zerolog.Nop()}
}

func (l *ZerologLogger) Info(msg string, keyvals ...interface{}) {
	withFields(l.zlog.Info(), keyvals).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, keyvals ...interface{}) {
	withFields(l.zlog.Warn(), keyvals).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, keyvals ...interface{}) {
	withFields(l.zlog.Error(), keyvals).Msg(msg)
}

func (l *ZerologLogger) Debug(msg string, keyvals ...interface{}) {
	withFields(l.zlog.Debug(), keyvals).Msg(msg)
}

// SetLevel changes the minimum level of this logger. Unknown levels fall back to info.
func (l *ZerologLogger) SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	l.zlog = l.zlog.Level(lvl)
}

// With returns a child logger carrying the given fields.
func (l *ZerologLogger) With(ctx map[string]interface{}) Logger {
	child := l.zlog.With()
	for key, value := range ctx {
		child = child.Interface(key, value)
	}
	return &ZerologLogger{zlog: child.Logger()}
}

func withFields(event *zerolog.Event, keyvals []interface{}) *zerolog.Event {
	for i := 0; i < len(keyvals)-1; i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		if err, ok := keyvals[i+1].(error); ok {
			event = event.AnErr(key, err)
			continue
		}
		event = event.Interface(key, keyvals[i+1])
	}
	return event
}
