package backup

import (
	"context"
	"fmt"
	"sync"

	"github.com/liamtostring/schegen/models"
)

// MemoryStore keeps the most recent backups of each record in memory.
type MemoryStore struct {
	mu        sync.RWMutex
	retention int
	records   map[Record][]Backup // oldest first
}

// NewMemoryStore keeps at most retention backups per record; older ones are
// dropped on Save.
func NewMemoryStore(retention int) *MemoryStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryStore{retention: retention, records: make(map[Record][]Backup)}
}

func (m *MemoryStore) Save(_ context.Context, b Backup) error {
	if b.ID == "" {
		return fmt.Errorf("%w: backup without id", models.ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	list := append(m.records[b.Record], b)
	if len(list) > m.retention {
		list = append([]Backup(nil), list[len(list)-m.retention:]...)
	}
	m.records[b.Record] = list
	return nil
}

func (m *MemoryStore) Latest(_ context.Context, rec Record) (Backup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.records[rec]
	if len(list) == 0 {
		return Backup{}, fmt.Errorf("backup for %s: %w", rec, models.ErrNotFound)
	}
	return list[len(list)-1], nil
}

func (m *MemoryStore) List(_ context.Context, rec Record) ([]Backup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.records[rec]
	out := make([]Backup, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Backup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, list := range m.records {
		for _, b := range list {
			if b.ID == id {
				return b, nil
			}
		}
	}
	return Backup{}, fmt.Errorf("backup %s: %w", id, models.ErrNotFound)
}
