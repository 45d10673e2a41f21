package storage

import (
	"sync"

	config "github.com/socialdb/migrator/configs"
	"github.com/socialdb/migrator/internal/common"
)

type MemoryConnector struct {
	mu      sync.RWMutex
	offsets map[string]int
}

func NewMemoryConnector(cfg *config.MemoryConfig) (*MemoryConnector, error) {
	return &MemoryConnector{offsets: make(map[string]int)}, nil
}

func (m *MemoryConnector) GetCommittedOffset(destination string, kind common.EntityKind) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.offsets[progressKey(destination, kind)], nil
}

func (m *MemoryConnector) SetCommittedOffset(destination string, kind common.EntityKind, offset int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offsets[progressKey(destination, kind)] = offset
	return nil
}

func (m *MemoryConnector) Reset(destination string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, kind := range trackedKinds {
		delete(m.offsets, progressKey(destination, kind))
	}
	return nil
}

func (m *MemoryConnector) Close() error {
	return nil
}
