package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var base = newLogger(os.Stdout, os.Getenv("LOG_LEVEL"))

func newLogger(out io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).
		With().
		Timestamp().
		Str("service", "convochat").
		Logger().
		Level(parseLevel(level))
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		if os.Getenv("ENVIRONMENT") == "development" {
			return zerolog.DebugLevel
		}
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Configure replaces the process logger. Called once from main after the
// configuration is loaded.
func Configure(out io.Writer, level string) {
	base = newLogger(out, level)
}

func Info(format string, v ...interface{}) {
	base.Info().Msgf(format, v...)
}

func Error(format string, v ...interface{}) {
	base.Error().Msgf(format, v...)
}

func Debug(format string, v ...interface{}) {
	base.Debug().Msgf(format, v...)
}

func Warn(format string, v ...interface{}) {
	base.Warn().Msgf(format, v...)
}

// LogAppendError records a failed transactional append.
func LogAppendError(conversationID, action string, err error) {
	base.Warn().
		Str("conversation_id", conversationID).
		Str("action", action).
		Err(err).
		Msg("append failed")
}
