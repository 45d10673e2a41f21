package storage

import (
	"fmt"

	config "github.com/socialdb/migrator/configs"
	"github.com/socialdb/migrator/internal/common"
)

// IProgressStorage persists how far each dataset has been committed to a
// destination account, so an interrupted migration can resume.
type IProgressStorage interface {
	// GetCommittedOffset returns 0 when nothing was recorded.
	GetCommittedOffset(destination string, kind common.EntityKind) (int, error)
	SetCommittedOffset(destination string, kind common.EntityKind, offset int) error
	Reset(destination string) error
	Close() error
}

var trackedKinds = []common.EntityKind{common.KindNodes, common.KindAccounts}

func NewConnector(cfg *config.StorageConnectionConfig) (IProgressStorage, error) {
	var conn IProgressStorage
	var err error
	if cfg.Pebble != nil {
		conn, err = NewPebbleConnector(cfg.Pebble)
	} else if cfg.Badger != nil {
		conn, err = NewBadgerConnector(cfg.Badger)
	} else if cfg.Redis != nil {
		conn, err = NewRedisConnector(cfg.Redis)
	} else if cfg.Memory != nil {
		conn, err = NewMemoryConnector(cfg.Memory)
	} else {
		return nil, fmt.Errorf("no storage driver configured")
	}

	if err != nil {
		return nil, err
	}
	return conn, nil
}

func progressKey(destination string, kind common.EntityKind) string {
	return fmt.Sprintf("progress:%s:%s", destination, kind)
}
