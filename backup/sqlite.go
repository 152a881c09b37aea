package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/liamtostring/schegen/backup/migrations"
	"github.com/liamtostring/schegen/models"
)

// SQLiteStore persists backups in a local SQLite file so they survive
// restarts.
type SQLiteStore struct {
	db        *sql.DB
	retention int
}

// OpenSQLite opens (or creates) the backup database at path and applies
// pending migrations.
func OpenSQLite(path string, retention int) (*SQLiteStore, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating backup directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening backup database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, retention: retention}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}

	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Save inserts the backup and prunes the record down to the retention
// bound in the same transaction.
func (s *SQLiteStore) Save(ctx context.Context, b Backup) error {
	if b.ID == "" {
		return fmt.Errorf("%w: backup without id", models.ErrInvalidInput)
	}
	rows, err := json.Marshal(b.Rows)
	if err != nil {
		return fmt.Errorf("encoding backup rows: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO backups (id, site, post_id, created_at, meta_rows) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Site, b.PostID, b.CreatedAt.UnixNano(), string(rows))
	if err != nil {
		return fmt.Errorf("saving backup: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM backups WHERE site = ? AND post_id = ? AND seq NOT IN (
			SELECT seq FROM backups WHERE site = ? AND post_id = ? ORDER BY seq DESC LIMIT ?
		)`, b.Site, b.PostID, b.Site, b.PostID, s.retention)
	if err != nil {
		return fmt.Errorf("pruning backups: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Latest(ctx context.Context, rec Record) (Backup, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, site, post_id, created_at, meta_rows FROM backups
		WHERE site = ? AND post_id = ? ORDER BY seq DESC LIMIT 1`, rec.Site, rec.PostID)
	b, err := scanBackup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Backup{}, fmt.Errorf("backup for %s: %w", rec, models.ErrNotFound)
	}
	return b, err
}

func (s *SQLiteStore) List(ctx context.Context, rec Record) ([]Backup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, site, post_id, created_at, meta_rows FROM backups
		WHERE site = ? AND post_id = ? ORDER BY seq DESC`, rec.Site, rec.PostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Backup
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Backup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, site, post_id, created_at, meta_rows FROM backups WHERE id = ?`, id)
	b, err := scanBackup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Backup{}, fmt.Errorf("backup %s: %w", id, models.ErrNotFound)
	}
	return b, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBackup(sc scanner) (Backup, error) {
	var b Backup
	var created int64
	var rows string
	if err := sc.Scan(&b.ID, &b.Site, &b.PostID, &created, &rows); err != nil {
		return Backup{}, err
	}
	b.CreatedAt = time.Unix(0, created).UTC()
	if err := json.Unmarshal([]byte(rows), &b.Rows); err != nil {
		return Backup{}, fmt.Errorf("decoding backup %s: %w", b.ID, err)
	}
	return b, nil
}
