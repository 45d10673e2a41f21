package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	config "github.com/socialdb/migrator/configs"
	"github.com/socialdb/migrator/internal/common"
)

type BadgerConnector struct {
	db *badger.DB
}

func NewBadgerConnector(cfg *config.BadgerConfig) (*BadgerConnector, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		path := cfg.Path
		if path == "" {
			path = filepath.Join(os.TempDir(), "socialdb-migrator-badger")
		}
		opts = badger.DefaultOptions(path)
		opts.SyncWrites = true
	}
	opts.Logger = nil // Disable badger's internal logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &BadgerConnector{db: db}, nil
}

func (bc *BadgerConnector) GetCommittedOffset(destination string, kind common.EntityKind) (int, error) {
	var offset int
	err := bc.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(progressKey(destination, kind)))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			offset, err = strconv.Atoi(string(val))
			return err
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read %s progress: %w", kind, err)
	}
	return offset, nil
}

func (bc *BadgerConnector) SetCommittedOffset(destination string, kind common.EntityKind, offset int) error {
	return bc.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(progressKey(destination, kind)), []byte(strconv.Itoa(offset)))
	})
}

func (bc *BadgerConnector) Reset(destination string) error {
	return bc.db.Update(func(txn *badger.Txn) error {
		for _, kind := range trackedKinds {
			if err := txn.Delete([]byte(progressKey(destination, kind))); err != nil {
				return err
			}
		}
		return nil
	})
}

func (bc *BadgerConnector) Close() error {
	return bc.db.Close()
}
