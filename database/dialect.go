package database

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/liamtostring/schegen/models"
)

type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect accepts the driver names people usually type.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("%w: unknown database driver %q", models.ErrInvalidInput, s)
}

// driverName is the database/sql driver registered for the dialect.
func (d Dialect) driverName() string {
	return string(d)
}

// rebind rewrites ? placeholders to $n for postgres.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) schema(prefix string) []string {
	posts, meta := prefix+"posts", prefix+"postmeta"
	switch d {
	case MySQL:
		return []string{
			`CREATE TABLE IF NOT EXISTS ` + posts + ` (
				ID BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
				post_name VARCHAR(200) NOT NULL DEFAULT '',
				post_title TEXT NOT NULL,
				post_type VARCHAR(20) NOT NULL DEFAULT 'post',
				post_status VARCHAR(20) NOT NULL DEFAULT 'publish',
				KEY post_name (post_name(191))
			)`,
			`CREATE TABLE IF NOT EXISTS ` + meta + ` (
				meta_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
				post_id BIGINT UNSIGNED NOT NULL DEFAULT 0,
				meta_key VARCHAR(255) DEFAULT NULL,
				meta_value LONGTEXT,
				KEY post_id (post_id),
				KEY meta_key (meta_key(191))
			)`,
		}
	case Postgres:
		return []string{
			`CREATE TABLE IF NOT EXISTS ` + posts + ` (
				ID BIGSERIAL PRIMARY KEY,
				post_name TEXT NOT NULL DEFAULT '',
				post_title TEXT NOT NULL DEFAULT '',
				post_type TEXT NOT NULL DEFAULT 'post',
				post_status TEXT NOT NULL DEFAULT 'publish'
			)`,
			`CREATE TABLE IF NOT EXISTS ` + meta + ` (
				meta_id BIGSERIAL PRIMARY KEY,
				post_id BIGINT NOT NULL DEFAULT 0,
				meta_key TEXT,
				meta_value TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_` + meta + `_post_id ON ` + meta + `(post_id)`,
			`CREATE INDEX IF NOT EXISTS idx_` + posts + `_name ON ` + posts + `(post_name)`,
		}
	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS ` + posts + ` (
				ID INTEGER PRIMARY KEY AUTOINCREMENT,
				post_name TEXT NOT NULL DEFAULT '',
				post_title TEXT NOT NULL DEFAULT '',
				post_type TEXT NOT NULL DEFAULT 'post',
				post_status TEXT NOT NULL DEFAULT 'publish'
			)`,
			`CREATE TABLE IF NOT EXISTS ` + meta + ` (
				meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
				post_id INTEGER NOT NULL DEFAULT 0,
				meta_key TEXT,
				meta_value TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_` + meta + `_post_id ON ` + meta + `(post_id)`,
			`CREATE INDEX IF NOT EXISTS idx_` + posts + `_name ON ` + posts + `(post_name)`,
		}
	}
}
