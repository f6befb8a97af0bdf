package logx

import (
	"os"

	"github.com/Chative-core-poc-v1/csagent/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var DefaultLoggerOpts = &LoggerOpts{
	Environment: core.Development,
}

type LoggerOpts struct {
	Environment core.Environment
	// Level overrides the environment default when non-empty (e.g. "warn").
	Level string
}

func safe(otps ...LoggerOpts) *LoggerOpts {
	if len(otps) == 0 {
		return DefaultLoggerOpts
	}
	return &otps[0]
}

func Init(otps ...LoggerOpts) {
	o := safe(otps...)
	if o.Environment.IsProduction() {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Caller().Logger()
	}
	levelName := o.Level
	if levelName == "" {
		levelName = o.Environment.DefaultLogLevel()
	}
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Logger.Level(level)
}

// WithTurn returns a child logger tagged with the conversation and turn ids.
func WithTurn(conversationID, turnID string) zerolog.Logger {
	return log.Logger.With().
		Str("conversation_id", conversationID).
		Str("turn_id", turnID).
		Logger()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Panic() *zerolog.Event {
	return log.Panic()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
