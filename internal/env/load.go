package env

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Load reads key=value pairs from the given files (".env" when none are given)
// into the process environment. Variables that are already set win.
func Load(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		err := godotenv.Load(file)
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("file", file).Msg("no env file")
			continue
		}
		if err != nil {
			log.Error().Err(err).Str("file", file).Msg("error loading env file")
		}
	}
}
