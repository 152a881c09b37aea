package mutation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamtostring/schegen/backup"
	"github.com/liamtostring/schegen/database"
	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/schema"
)

type fixture struct {
	db      *database.Store
	backups *backup.MemoryStore
	m       *Mutator
	postID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(database.SQLite, filepath.Join(t.TempDir(), "wp.db"), "wp_")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.EnsureSchema(ctx))

	postID, err := db.CreatePost(ctx, "ac-repair-houston", "AC Repair Houston", "page")
	require.NoError(t, err)

	n := 0
	codes := func() string {
		n++
		return fmt.Sprintf("s-test-%d", n)
	}
	backups := backup.NewMemoryStore(5)
	return &fixture{
		db:      db,
		backups: backups,
		m:       New(db, backups, "example.com", WithShortcodes(codes)),
		postID:  postID,
	}
}

func article() *schema.Article {
	return &schema.Article{
		Node:          schema.Node{Type: "Article", ID: "https://example.com/post/#article"},
		Headline:      "How to size an AC unit",
		Description:   "Sizing basics.",
		Author:        &schema.Author{Type: "Person", Name: "Jane Doe"},
		DatePublished: "2024-05-01",
	}
}

func service() *schema.Service {
	return &schema.Service{
		Node: schema.Node{Type: "Service", ID: "https://example.com/ac-repair-houston/#service"},
		Name: "AC Repair",
		Provider: &schema.Business{
			Node:    schema.Node{Type: "HVACBusiness"},
			Name:    "Cool Co",
			Address: &schema.PostalAddress{Type: "PostalAddress", AddressLocality: "Houston", AddressRegion: "TX", AddressCountry: "US"},
		},
		AreaServed: schema.NewAreas([]string{"Houston"}),
	}
}

func snapshot(t *testing.T, f *fixture) []string {
	t.Helper()
	rows, err := f.db.ListMeta(context.Background(), f.postID, ManagedPrefixes...)
	require.NoError(t, err)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Key+"="+r.Value)
	}
	sort.Strings(out)
	return out
}

func TestSerialize_MetadataFirst(t *testing.T) {
	value, err := Serialize(article(), "s-abc", true)
	require.NoError(t, err)

	prefix := `a:7:{s:8:"metadata";a:6:{s:5:"title";s:7:"Article";s:4:"type";s:6:"custom";` +
		`s:9:"shortcode";s:5:"s-abc";s:9:"isPrimary";b:1;s:4:"name";s:22:"How to size an AC unit";` +
		`s:11:"description";s:14:"Sizing basics.";}s:5:"@type";s:7:"Article";`
	assert.True(t, strings.HasPrefix(value, prefix), value)
	assert.NotContains(t, value, "@context")

	st, err := Parse(value)
	require.NoError(t, err)
	assert.Equal(t, "s-abc", st.Metadata.Shortcode)
	assert.True(t, st.Metadata.IsPrimary)
	got, ok := st.Entity.(*schema.Article)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", got.Author.Name)
	assert.Equal(t, "2024-05-01", got.DatePublished)
}

func TestParse_PluginMetadata(t *testing.T) {
	value := `a:3:{s:8:"metadata";a:3:{s:5:"title";s:7:"Service";s:9:"isPrimary";s:1:"1";s:9:"shortcode";s:4:"s-xy";}` +
		`s:5:"@type";s:7:"Service";s:4:"name";s:2:"AC";}`
	st, err := Parse(value)
	require.NoError(t, err)
	assert.True(t, st.Metadata.IsPrimary)
	assert.Equal(t, "s-xy", st.Metadata.Shortcode)
	assert.Equal(t, schema.KindService, st.Entity.Kind())
}

func TestKeyFor(t *testing.T) {
	key, err := KeyFor(service())
	require.NoError(t, err)
	assert.Equal(t, "rank_math_schema_Service", key)

	_, err = KeyFor(&schema.Other{Type: "bad type"})
	assert.True(t, errors.Is(err, models.ErrUnsupportedType))
}

func TestPreviewMatchesDryRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	plan, err := f.m.Preview(ctx, f.postID, service())
	require.NoError(t, err)
	res, err := f.m.Execute(ctx, f.postID, service(), ExecOptions{})
	require.NoError(t, err)

	assert.Equal(t, ActionInsert, plan.Action)
	assert.Equal(t, plan.Action, res.Action)
	assert.Equal(t, plan.Target, res.Target)
	assert.True(t, res.Simulated)
	assert.Empty(t, snapshot(t, f), "dry run must not write")

	_, err = f.m.Execute(ctx, f.postID, service(), ExecOptions{Commit: true})
	require.NoError(t, err)

	plan, err = f.m.Preview(ctx, f.postID, service())
	require.NoError(t, err)
	res, err = f.m.Execute(ctx, f.postID, service(), ExecOptions{})
	require.NoError(t, err)
	assert.Equal(t, ActionUpdate, plan.Action)
	assert.Equal(t, plan.Action, res.Action)
	assert.Equal(t, plan.WouldOverwriteID, res.WouldOverwriteID)
	assert.True(t, plan.Identical)
}

func TestExecute_UpdateKeepsShortcode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.m.Execute(ctx, f.postID, service(), ExecOptions{Commit: true})
	require.NoError(t, err)

	changed := service()
	changed.Name = "Emergency AC Repair"
	second, err := f.m.Execute(ctx, f.postID, changed, ExecOptions{Commit: true})
	require.NoError(t, err)

	assert.Equal(t, ActionUpdate, second.Action)
	assert.Equal(t, first.MetaID, second.MetaID)
	assert.False(t, second.Identical)

	row, err := f.db.GetMeta(ctx, f.postID, "rank_math_schema_Service")
	require.NoError(t, err)
	st, err := Parse(row.Value)
	require.NoError(t, err)
	assert.Equal(t, "s-test-1", st.Metadata.Shortcode)
	assert.Equal(t, "Emergency AC Repair", st.Entity.(*schema.Service).Name)
}

func TestExecute_PrimarySetsSnippet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.m.Execute(ctx, f.postID, article(), ExecOptions{Commit: true, IsPrimary: true})
	require.NoError(t, err)

	row, err := f.db.GetMeta(ctx, f.postID, RichSnippetKey)
	require.NoError(t, err)
	assert.Equal(t, "article", row.Value)
}

func TestExecute_ValidationBlocksCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bad := service()
	bad.Provider = nil

	res, err := f.m.Execute(ctx, f.postID, bad, ExecOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Issues)

	_, err = f.m.Execute(ctx, f.postID, bad, ExecOptions{Commit: true})
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Empty(t, snapshot(t, f))
}

func TestRollbackLaw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.db.InsertMeta(ctx, f.postID, "rank_math_schema_Service", `a:1:{s:5:"@type";s:7:"Service";}`)
	require.NoError(t, err)
	_, err = f.db.InsertMeta(ctx, f.postID, RichSnippetKey, "service")
	require.NoError(t, err)
	_, err = f.db.InsertMeta(ctx, f.postID, "_edit_lock", "123")
	require.NoError(t, err)
	before := snapshot(t, f)

	_, err = f.m.Backup(ctx, f.postID)
	require.NoError(t, err)
	res, err := f.m.Execute(ctx, f.postID, service(), ExecOptions{Commit: true, IsPrimary: true})
	require.NoError(t, err)
	_, err = f.m.Execute(ctx, f.postID, article(), ExecOptions{Commit: true})
	require.NoError(t, err)
	assert.Equal(t, ActionUpdate, res.Action)
	assert.NotEqual(t, before, snapshot(t, f))

	n, err := f.m.Rollback(ctx, f.postID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, before, snapshot(t, f))

	lock, err := f.db.GetMeta(ctx, f.postID, "_edit_lock")
	require.NoError(t, err)
	assert.Equal(t, "123", lock.Value)

	// the backup stays usable
	_, err = f.m.Rollback(ctx, f.postID)
	require.NoError(t, err)
	assert.Equal(t, before, snapshot(t, f))
}

func TestExecute_BackupThenRollbackToEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.m.Execute(ctx, f.postID, service(), ExecOptions{Commit: true, Backup: true})
	require.NoError(t, err)
	assert.True(t, res.BackedUp())

	n, err := f.m.Rollback(ctx, f.postID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, snapshot(t, f))
}

func TestRollback_WithoutBackup(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.Rollback(context.Background(), f.postID)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

type brokenBackups struct{ backup.Store }

func (brokenBackups) Save(context.Context, backup.Backup) error { return errors.New("disk full") }

func TestExecute_BackupFailureAborts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := New(f.db, brokenBackups{}, "example.com")

	_, err := m.Execute(ctx, f.postID, service(), ExecOptions{Commit: true, Backup: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrBackupFailed))
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, snapshot(t, f))

	_, err = m.ReplaceAll(ctx, f.postID, []schema.Entity{service()}, ReplaceOptions{Commit: true, Backup: true})
	assert.True(t, errors.Is(err, models.ErrBackupFailed))
	assert.Empty(t, snapshot(t, f))
}

func TestIsReferenceOnly(t *testing.T) {
	site := &schema.WebSite{Node: schema.Node{Type: "WebSite", ID: "https://example.com/#website"}, URL: "https://example.com/"}
	assert.True(t, IsReferenceOnly(site))

	site.Name = "Example"
	assert.False(t, IsReferenceOnly(site))

	svc := &schema.Service{Node: schema.Node{Type: "Service"}, Name: "x"}
	assert.False(t, IsReferenceOnly(svc))
}

func TestPrimaryIndex(t *testing.T) {
	faq := &schema.FAQPage{Node: schema.Node{Type: "FAQPage"}}
	product := &schema.Other{Type: "Product"}

	assert.Equal(t, -1, PrimaryIndex(nil))
	assert.Equal(t, 0, PrimaryIndex([]schema.Entity{faq}))
	assert.Equal(t, 2, PrimaryIndex([]schema.Entity{faq, product, service()}))
	assert.Equal(t, 1, PrimaryIndex([]schema.Entity{faq, article(), product}))
	assert.Equal(t, 1, PrimaryIndex([]schema.Entity{faq, product}))
}

func TestReplaceAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.db.InsertMeta(ctx, f.postID, "rank_math_schema_Article", "stale")
	require.NoError(t, err)

	site := &schema.WebSite{Node: schema.Node{Type: "WebSite", ID: "https://example.com/#website"}, URL: "https://example.com/"}
	faq := &schema.FAQPage{
		Node: schema.Node{Type: "FAQPage"},
		MainEntity: []schema.Question{{
			Type: "Question", Name: "Q?", AcceptedAnswer: schema.Answer{Type: "Answer", Text: "A."},
		}},
	}
	entities := []schema.Entity{site, faq, service(), service()}

	dry, err := f.m.ReplaceAll(ctx, f.postID, entities, ReplaceOptions{})
	require.NoError(t, err)
	assert.True(t, dry.Simulated)
	assert.Equal(t, []string{"WebSite"}, dry.Skipped)
	assert.Equal(t, 1, dry.Removed)

	res, err := f.m.ReplaceAll(ctx, f.postID, entities, ReplaceOptions{Commit: true, Backup: true})
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	assert.NotEmpty(t, res.BackupID)
	assert.False(t, res.Success(), "duplicate Service row must fail")

	assert.Equal(t, "FAQPage", res.Rows[0].Type)
	assert.False(t, res.Rows[0].Primary)
	assert.True(t, res.Rows[1].Primary)
	assert.NotZero(t, res.Rows[1].MetaID)
	assert.True(t, errors.Is(res.Rows[2].Err, models.ErrDuplicateSchemaType))

	keys := map[string]string{}
	rows, err := f.db.ListMeta(ctx, f.postID, ManagedPrefixes...)
	require.NoError(t, err)
	for _, r := range rows {
		keys[r.Key] = r.Value
	}
	assert.Len(t, keys, 3)
	assert.Contains(t, keys, "rank_math_schema_FAQPage")
	assert.Contains(t, keys, "rank_math_schema_Service")
	assert.Equal(t, "service", keys[RichSnippetKey])
	assert.NotContains(t, keys, "rank_math_schema_Article")
	assert.NotContains(t, keys, "rank_math_schema_WebSite")

	st, err := Parse(keys["rank_math_schema_Service"])
	require.NoError(t, err)
	assert.True(t, st.Metadata.IsPrimary)

	n, err := f.m.Rollback(ctx, f.postID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"rank_math_schema_Article=stale"}, snapshot(t, f))
}

func TestReplaceAll_InvalidRowKeepsPreviousValue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.db.InsertMeta(ctx, f.postID, "rank_math_schema_Service", "previous")
	require.NoError(t, err)

	bad := service()
	bad.Name = ""
	res, err := f.m.ReplaceAll(ctx, f.postID, []schema.Entity{bad, article()}, ReplaceOptions{Commit: true})
	require.NoError(t, err)
	assert.False(t, res.Success())
	assert.True(t, errors.Is(res.Rows[0].Err, models.ErrValidation))
	assert.Nil(t, res.Rows[1].Err)

	row, err := f.db.GetMeta(ctx, f.postID, "rank_math_schema_Service")
	require.NoError(t, err)
	assert.Equal(t, "previous", row.Value)
	_, err = f.db.GetMeta(ctx, f.postID, "rank_math_schema_Article")
	assert.NoError(t, err)
}

func primaryKeys(t *testing.T, f *fixture) []string {
	t.Helper()
	rows, err := f.db.ListMeta(context.Background(), f.postID, SchemaKeyPrefix)
	require.NoError(t, err)
	var out []string
	for _, r := range rows {
		st, err := Parse(r.Value)
		require.NoError(t, err)
		if st.Metadata.IsPrimary {
			out = append(out, r.Key)
		}
	}
	return out
}

func TestExecute_PrimaryDemotesOthers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.m.Execute(ctx, f.postID, article(), ExecOptions{Commit: true, IsPrimary: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"rank_math_schema_Article"}, primaryKeys(t, f))

	res, err := f.m.Execute(ctx, f.postID, service(), ExecOptions{Commit: true, Backup: true, IsPrimary: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"rank_math_schema_Service"}, primaryKeys(t, f))

	row, err := f.db.GetMeta(ctx, f.postID, "rank_math_schema_Article")
	require.NoError(t, err)
	st, err := Parse(row.Value)
	require.NoError(t, err)
	assert.Equal(t, "s-test-1", st.Metadata.Shortcode)
	assert.Equal(t, "How to size an AC unit", st.Entity.(*schema.Article).Headline)

	snippet, err := f.db.GetMeta(ctx, f.postID, RichSnippetKey)
	require.NoError(t, err)
	assert.Equal(t, "service", snippet.Value)

	// the demotion is covered by the backup taken before the write
	require.True(t, res.BackedUp())
	_, err = f.m.Rollback(ctx, f.postID)
	require.NoError(t, err)
	assert.Equal(t, []string{"rank_math_schema_Article"}, primaryKeys(t, f))
}

func TestReplaceAll_KeptRowLosesPrimary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.m.Execute(ctx, f.postID, article(), ExecOptions{Commit: true, IsPrimary: true})
	require.NoError(t, err)

	bad := article()
	bad.Headline = ""
	res, err := f.m.ReplaceAll(ctx, f.postID, []schema.Entity{service(), bad}, ReplaceOptions{Commit: true})
	require.NoError(t, err)
	assert.False(t, res.Success())

	assert.Equal(t, []string{"rank_math_schema_Service"}, primaryKeys(t, f))
	row, err := f.db.GetMeta(ctx, f.postID, "rank_math_schema_Article")
	require.NoError(t, err)
	st, err := Parse(row.Value)
	require.NoError(t, err)
	assert.Equal(t, "How to size an AC unit", st.Entity.(*schema.Article).Headline, "kept row keeps its content")
}

func TestRollback_LeavesSimilarKeysAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.db.InsertMeta(ctx, f.postID, RichSnippetKey+"_name", "custom")
	require.NoError(t, err)
	_, err = f.m.Execute(ctx, f.postID, service(), ExecOptions{Commit: true, Backup: true})
	require.NoError(t, err)

	_, err = f.m.Rollback(ctx, f.postID)
	require.NoError(t, err)

	row, err := f.db.GetMeta(ctx, f.postID, RichSnippetKey+"_name")
	require.NoError(t, err)
	assert.Equal(t, "custom", row.Value)

	_, err = f.m.ReplaceAll(ctx, f.postID, []schema.Entity{article()}, ReplaceOptions{Commit: true})
	require.NoError(t, err)
	_, err = f.db.GetMeta(ctx, f.postID, RichSnippetKey+"_name")
	assert.NoError(t, err)
}
