package log

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	config "github.com/socialdb/migrator/configs"
)

func InitLogger() {
	// overrides zerolog global logger
	log.Logger = NewLogger("migrator")
}

func NewLogger(name string) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(config.Cfg.Log.Level); err == nil && lvl != zerolog.NoLevel {
		level = lvl
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", name).Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	if prettify() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	return logger
}

// ForAccounts returns a child of the global logger tagged with both ends of a migration.
func ForAccounts(source string, destination string) zerolog.Logger {
	return log.Logger.With().Str("source", source).Str("destination", destination).Logger()
}

func prettify() bool {
	if config.Cfg.Log.Prettify {
		return true
	}
	if config.Cfg.Log.JSON {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
