// Package logger provides structured logging for schegen
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with schegen-specific helpers
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // console output for humans
	Output     io.Writer
	WithCaller bool
}

// New creates a structured logger. Unlike zerolog's global level, the level
// is kept on the returned logger so several loggers can coexist in tests.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "schegen").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}
	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}

// Zerolog returns the underlying zerolog logger
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zlog
}

func (l *Logger) Info() *zerolog.Event  { return l.zlog.Info() }
func (l *Logger) Debug() *zerolog.Event { return l.zlog.Debug() }
func (l *Logger) Warn() *zerolog.Event  { return l.zlog.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zlog.Error() }

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", name).Logger()}
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// LogGeneration logs the outcome of one schema generation.
func (l *Logger) LogGeneration(url, pageType, mode string, entities int, duration time.Duration, err error) {
	if err != nil {
		l.zlog.Error().
			Str("event", "generate").
			Str("url", url).
			Str("mode", mode).
			Dur("duration_ms", duration).
			Err(err).
			Msg("schema generation failed")
		return
	}
	l.zlog.Info().
		Str("event", "generate").
		Str("url", url).
		Str("page_type", pageType).
		Str("mode", mode).
		Int("entities", entities).
		Dur("duration_ms", duration).
		Msg("schema generated")
}

// LogMutation logs a write (or simulated write) against the meta store.
func (l *Logger) LogMutation(postID int64, action, key string, metaID int64, simulated bool, err error) {
	event := l.zlog.Info()
	if err != nil {
		event = l.zlog.Error().Err(err)
	}
	event.
		Str("event", "mutation").
		Int64("post_id", postID).
		Str("action", action).
		Str("meta_key", key).
		Int64("meta_id", metaID).
		Bool("simulated", simulated).
		Msg("schema meta mutation")
}
