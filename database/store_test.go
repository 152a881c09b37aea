package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamtostring/schegen/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(SQLite, filepath.Join(t.TempDir(), "wp.db"), "wp_")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{"MySQL": MySQL, "postgresql": Postgres, "sqlite3": SQLite, "mariadb": MySQL} {
		got, err := ParseDialect(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseDialect("oracle")
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b = $2", Postgres.rebind("a = ? AND b = ?"))
	assert.Equal(t, "a = ? AND b = ?", MySQL.rebind("a = ? AND b = ?"))
}

func TestOpen_RejectsBadPrefix(t *testing.T) {
	_, err := Open(SQLite, filepath.Join(t.TempDir(), "x.db"), "wp_; DROP TABLE")
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestFindPostIDBySlug(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreatePost(ctx, "ac-repair-houston", "AC Repair Houston", "page")
	require.NoError(t, err)

	got, err := s.FindPostIDBySlug(ctx, "/ac-repair-houston/")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = s.FindPostIDBySlug(ctx, "missing")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = s.FindPostIDBySlug(ctx, " ")
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestMetaCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	postID, err := s.CreatePost(ctx, "p", "P", "page")
	require.NoError(t, err)

	id1, err := s.InsertMeta(ctx, postID, "rank_math_schema_Service", "a:0:{}")
	require.NoError(t, err)
	_, err = s.InsertMeta(ctx, postID, "_edit_lock", "1")
	require.NoError(t, err)
	_, err = s.InsertMeta(ctx, postID+1, "rank_math_schema_Article", "x")
	require.NoError(t, err)

	rows, err := s.ListMeta(ctx, postID, "rank_math_schema_")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id1, rows[0].MetaID)

	all, err := s.ListMeta(ctx, postID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.UpdateMeta(ctx, id1, "b:1;"))
	row, err := s.GetMeta(ctx, postID, "rank_math_schema_Service")
	require.NoError(t, err)
	assert.Equal(t, "b:1;", row.Value)

	assert.True(t, errors.Is(s.UpdateMeta(ctx, 9999, "x"), models.ErrNotFound))

	require.NoError(t, s.ReplaceMeta(ctx, postID, []int64{id1}, nil))
	_, err = s.GetMeta(ctx, postID, "rank_math_schema_Service")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestReplaceMeta(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	postID, err := s.CreatePost(ctx, "p", "P", "page")
	require.NoError(t, err)

	old, err := s.InsertMeta(ctx, postID, "rank_math_schema_Service", "old")
	require.NoError(t, err)

	err = s.ReplaceMeta(ctx, postID, []int64{old}, []MetaRow{
		{Key: "rank_math_schema_Article", Value: "new"},
		{Key: "rank_math_rich_snippet", Value: "article"},
	})
	require.NoError(t, err)

	rows, err := s.ListMeta(ctx, postID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "rank_math_schema_Article", rows[0].Key)
	assert.Equal(t, "rank_math_rich_snippet", rows[1].Key)
}

func TestPool(t *testing.T) {
	p := NewPool()
	defer p.Close()
	dsn := filepath.Join(t.TempDir(), "pool.db")

	var wg sync.WaitGroup
	stores := make([]*Store, 8)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := p.Get(SQLite, dsn, "")
			assert.NoError(t, err)
			stores[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}
	assert.Equal(t, 1, p.Len())

	other, err := p.Get(SQLite, dsn, "site2_")
	require.NoError(t, err)
	assert.NotSame(t, stores[0], other)
	assert.Equal(t, 2, p.Len())

	require.NoError(t, p.Close())
	assert.Equal(t, 0, p.Len())
}
