// Package backup keeps snapshots of a post's schema meta rows so a
// destructive write can be reversed.
package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/liamtostring/schegen/database"
)

// DefaultRetention is how many backups are kept per record.
const DefaultRetention = 10

// Record identifies one post on one site. Site is an opaque label for the
// target database so posts with equal IDs on different sites never mix.
type Record struct {
	Site   string `json:"site"`
	PostID int64  `json:"post_id"`
}

func (r Record) String() string {
	if r.Site == "" {
		return fmt.Sprintf("post %d", r.PostID)
	}
	return fmt.Sprintf("%s post %d", r.Site, r.PostID)
}

// Backup is a full snapshot of a record's managed meta rows.
type Backup struct {
	ID string `json:"id"`
	Record
	CreatedAt time.Time          `json:"created_at"`
	Rows      []database.MetaRow `json:"rows"`
}

// New stamps a snapshot with a fresh ID and the current time.
func New(rec Record, rows []database.MetaRow) Backup {
	snapshot := make([]database.MetaRow, len(rows))
	copy(snapshot, rows)
	return Backup{
		ID:        uuid.NewString(),
		Record:    rec,
		CreatedAt: time.Now().UTC(),
		Rows:      snapshot,
	}
}

// Store is a backup index. Latest and Get return models.ErrNotFound when
// nothing matches; List returns newest first.
type Store interface {
	Save(ctx context.Context, b Backup) error
	Latest(ctx context.Context, rec Record) (Backup, error)
	List(ctx context.Context, rec Record) ([]Backup, error)
	Get(ctx context.Context, id string) (Backup, error)
}
