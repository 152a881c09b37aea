package backup

import (
	"context"
	"errors"
	"fmt"

	"github.com/liamtostring/schegen/models"
)

// Tiered pairs a fast in-memory index with an optional durable store.
// Saves go to the durable store first so a backup that only reached memory
// is never reported as taken.
type Tiered struct {
	Memory  *MemoryStore
	Durable Store
}

func NewTiered(memory *MemoryStore, durable Store) *Tiered {
	if memory == nil {
		memory = NewMemoryStore(DefaultRetention)
	}
	return &Tiered{Memory: memory, Durable: durable}
}

func (t *Tiered) Save(ctx context.Context, b Backup) error {
	if t.Durable != nil {
		if err := t.Durable.Save(ctx, b); err != nil {
			return err
		}
	}
	return t.Memory.Save(ctx, b)
}

func (t *Tiered) Latest(ctx context.Context, rec Record) (Backup, error) {
	b, err := t.Memory.Latest(ctx, rec)
	if err == nil || t.Durable == nil || !errors.Is(err, models.ErrNotFound) {
		return b, err
	}
	b, err = t.Durable.Latest(ctx, rec)
	if errors.Is(err, models.ErrNotFound) {
		return Backup{}, fmt.Errorf("no backup in memory or on disk for %s: %w", rec, models.ErrNotFound)
	}
	return b, err
}

// List prefers the durable history, which outlives the process.
func (t *Tiered) List(ctx context.Context, rec Record) ([]Backup, error) {
	if t.Durable != nil {
		list, err := t.Durable.List(ctx, rec)
		if err != nil || len(list) > 0 {
			return list, err
		}
	}
	return t.Memory.List(ctx, rec)
}

func (t *Tiered) Get(ctx context.Context, id string) (Backup, error) {
	b, err := t.Memory.Get(ctx, id)
	if err == nil || t.Durable == nil || !errors.Is(err, models.ErrNotFound) {
		return b, err
	}
	return t.Durable.Get(ctx, id)
}
