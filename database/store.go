package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/liamtostring/schegen/models"
)

const DefaultTablePrefix = "wp_"

var prefixRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// MetaRow is one row of the postmeta table.
type MetaRow struct {
	MetaID int64  `json:"meta_id"`
	PostID int64  `json:"post_id"`
	Key    string `json:"meta_key"`
	Value  string `json:"meta_value"`
}

// Store reads and writes WordPress posts and post meta.
type Store struct {
	DB      *sql.DB
	dialect Dialect
	prefix  string
}

// Open connects to the database and pings it.
func Open(dialect Dialect, dsn, prefix string) (*Store, error) {
	if prefix == "" {
		prefix = DefaultTablePrefix
	}
	if !prefixRe.MatchString(prefix) {
		return nil, fmt.Errorf("%w: invalid table prefix %q", models.ErrInvalidInput, prefix)
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect == SQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{DB: db, dialect: dialect, prefix: prefix}, nil
}

func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) postsTable() string { return s.prefix + "posts" }
func (s *Store) metaTable() string  { return s.prefix + "postmeta" }

// EnsureSchema creates the posts and postmeta tables when missing. It is
// meant for local and test databases; a live WordPress already has them.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, query := range s.dialect.schema(s.prefix) {
		if _, err := s.DB.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}
	return nil
}

// CreatePost inserts a post row. Used for fixtures and local setups.
func (s *Store) CreatePost(ctx context.Context, slug, title, postType string) (int64, error) {
	if postType == "" {
		postType = models.PostTypePage
	}
	query := `INSERT INTO ` + s.postsTable() + ` (post_name, post_title, post_type, post_status) VALUES (?, ?, ?, 'publish')`
	return s.insert(ctx, s.DB, query, "ID", slug, title, postType)
}

// FindPostIDBySlug returns the ID of the first live post with the slug.
func (s *Store) FindPostIDBySlug(ctx context.Context, slug string) (int64, error) {
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug == "" {
		return 0, fmt.Errorf("%w: empty slug", models.ErrInvalidInput)
	}
	query := s.dialect.rebind(`SELECT ID FROM ` + s.postsTable() + `
		WHERE post_name = ?
		AND post_status <> 'trash'
		AND post_type NOT IN ('revision', 'attachment', 'nav_menu_item')
		ORDER BY ID LIMIT 1`)

	var id int64
	err := s.DB.QueryRowContext(ctx, query, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("post with slug %q: %w", slug, models.ErrNotFound)
	}
	return id, err
}

// ListMeta returns the post's meta rows in meta_id order. With prefixes,
// only keys starting with one of them are returned.
func (s *Store) ListMeta(ctx context.Context, postID int64, prefixes ...string) ([]MetaRow, error) {
	query := s.dialect.rebind(`SELECT meta_id, post_id, meta_key, meta_value FROM ` + s.metaTable() + `
		WHERE post_id = ? ORDER BY meta_id`)

	rows, err := s.DB.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MetaRow
	for rows.Next() {
		var row MetaRow
		var key, value sql.NullString
		if err := rows.Scan(&row.MetaID, &row.PostID, &key, &value); err != nil {
			return nil, err
		}
		row.Key, row.Value = key.String, value.String
		if matchesPrefix(row.Key, prefixes) {
			out = append(out, row)
		}
	}
	return out, rows.Err()
}

func matchesPrefix(key string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// GetMeta returns the first row with key for the post.
func (s *Store) GetMeta(ctx context.Context, postID int64, key string) (MetaRow, error) {
	query := s.dialect.rebind(`SELECT meta_id, post_id, meta_key, meta_value FROM ` + s.metaTable() + `
		WHERE post_id = ? AND meta_key = ? ORDER BY meta_id LIMIT 1`)

	var row MetaRow
	var value sql.NullString
	err := s.DB.QueryRowContext(ctx, query, postID, key).Scan(&row.MetaID, &row.PostID, &row.Key, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return MetaRow{}, fmt.Errorf("meta %q for post %d: %w", key, postID, models.ErrNotFound)
	}
	if err != nil {
		return MetaRow{}, err
	}
	row.Value = value.String
	return row, nil
}

// InsertMeta adds a row and returns its meta_id.
func (s *Store) InsertMeta(ctx context.Context, postID int64, key, value string) (int64, error) {
	query := `INSERT INTO ` + s.metaTable() + ` (post_id, meta_key, meta_value) VALUES (?, ?, ?)`
	return s.insert(ctx, s.DB, query, "meta_id", postID, key, value)
}

// UpdateMeta replaces the value of an existing row.
func (s *Store) UpdateMeta(ctx context.Context, metaID int64, value string) error {
	query := s.dialect.rebind(`UPDATE ` + s.metaTable() + ` SET meta_value = ? WHERE meta_id = ?`)
	res, err := s.DB.ExecContext(ctx, query, value, metaID)
	if err != nil {
		return err
	}
	// MySQL reports changed rows, not matched rows, so an unchanged value
	// looks like a miss there.
	if s.dialect != MySQL {
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("meta_id %d: %w", metaID, models.ErrNotFound)
		}
	}
	return nil
}

// ReplaceMeta deletes the rows in remove and inserts add in one
// transaction. Either every change lands or none does.
func (s *Store) ReplaceMeta(ctx context.Context, postID int64, remove []int64, add []MetaRow) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	del, err := tx.PrepareContext(ctx, s.dialect.rebind(`DELETE FROM `+s.metaTable()+` WHERE meta_id = ?`))
	if err != nil {
		return err
	}
	defer del.Close()

	for _, id := range remove {
		if _, err := del.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("delete meta_id %d: %w", id, err)
		}
	}

	query := `INSERT INTO ` + s.metaTable() + ` (post_id, meta_key, meta_value) VALUES (?, ?, ?)`
	for _, row := range add {
		if _, err := s.insert(ctx, tx, query, "meta_id", postID, row.Key, row.Value); err != nil {
			return fmt.Errorf("insert %s: %w", row.Key, err)
		}
	}
	return tx.Commit()
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insert runs an INSERT and returns the generated id. Postgres has no
// LastInsertId, so it uses RETURNING.
func (s *Store) insert(ctx context.Context, q execQuerier, query, idColumn string, args ...any) (int64, error) {
	if s.dialect == Postgres {
		var id int64
		err := q.QueryRowContext(ctx, s.dialect.rebind(query+` RETURNING `+idColumn), args...).Scan(&id)
		return id, err
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) Close() error {
	return s.DB.Close()
}
