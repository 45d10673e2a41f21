package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog/log"
	config "github.com/socialdb/migrator/configs"
	"github.com/socialdb/migrator/internal/common"
)

type PebbleConnector struct {
	db *pebble.DB
}

func NewPebbleConnector(cfg *config.PebbleConfig) (*PebbleConnector, error) {
	path := cfg.Path
	if path == "" {
		path = filepath.Join(os.TempDir(), "socialdb-migrator-pebble")
	}

	opts := &pebble.Options{
		// progress records are tiny, keep the footprint small
		MemTableSize: 4 << 20,
	}
	// Disable Pebble's verbose logging
	opts.Logger = nil

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db: %w", err)
	}
	log.Debug().Str("path", path).Msg("Opened pebble progress storage")
	return &PebbleConnector{db: db}, nil
}

func (pc *PebbleConnector) GetCommittedOffset(destination string, kind common.EntityKind) (int, error) {
	value, closer, err := pc.db.Get([]byte(progressKey(destination, kind)))
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s progress: %w", kind, err)
	}
	defer closer.Close()

	offset, err := strconv.Atoi(string(value))
	if err != nil {
		return 0, fmt.Errorf("corrupt %s progress value %q: %w", kind, value, err)
	}
	return offset, nil
}

func (pc *PebbleConnector) SetCommittedOffset(destination string, kind common.EntityKind, offset int) error {
	err := pc.db.Set([]byte(progressKey(destination, kind)), []byte(strconv.Itoa(offset)), pebble.Sync)
	if err != nil {
		return fmt.Errorf("failed to store %s progress: %w", kind, err)
	}
	return nil
}

func (pc *PebbleConnector) Reset(destination string) error {
	batch := pc.db.NewBatch()
	defer batch.Close()
	for _, kind := range trackedKinds {
		if err := batch.Delete([]byte(progressKey(destination, kind)), nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func (pc *PebbleConnector) Close() error {
	return pc.db.Close()
}
