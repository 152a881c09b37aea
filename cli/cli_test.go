package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamtostring/schegen/database"
	"github.com/liamtostring/schegen/models"
)

const articleGraph = `{"@context":"https://schema.org","@graph":[
{"@type":"Organization","@id":"https://example.com/#organization","name":"Acme"},
{"@type":"WebPage","@id":"https://example.com/blog/winter-tips/#webpage","url":"https://example.com/blog/winter-tips/","name":"Winter tips"},
{"@type":"Article","@id":"https://example.com/blog/winter-tips/#article","headline":"Winter tips",
 "author":{"@type":"Person","name":"Jane Doe"},"datePublished":"2024-01-05"}]}`

const blogPage = `<html><head><title>Winter tips</title>
<meta property="article:published_time" content="2024-01-05">
<meta name="author" content="Jane Doe"></head>
<body class="single single-post postid-9"><article><h1>Winter tips</h1>
<a rel="category tag" href="/category/tips/">Tips</a><p>Keep vents clear.</p></article></body></html>`

// resetFlags puts every flag back to its default; cobra keeps flag state
// between Execute calls on the same command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "ORG_PROFILE", "AI_PROVIDER", "METRICS_ADDR"} {
		t.Setenv(key, "")
	}
	t.Setenv("RATE_LIMIT", "0")
	t.Setenv("BACKUP_DIR", t.TempDir())

	resetFlags(rootCmd)
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := Execute(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"classify", "generate", "validate", "insert", "rollback", "backups", "batch", "compare", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCmd(t *testing.T) {
	original := version
	version = "1.2.3"
	defer func() { version = original }()

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "schegen version 1.2.3")
}

func TestValidateCmd(t *testing.T) {
	out, err := run(t, "validate", writeFile(t, "g.json", articleGraph))
	require.NoError(t, err)
	assert.Contains(t, out, "3 entities: Organization, WebPage, Article")
	assert.Contains(t, out, "valid")
}

func TestValidateCmd_Invalid(t *testing.T) {
	bad := `{"@graph":[{"@type":"Article","headline":"No author"}]}`
	out, err := run(t, "validate", writeFile(t, "bad.json", bad))
	assert.True(t, errors.Is(err, models.ErrValidation), "got %v", err)
	assert.Contains(t, out, "Article.author")
	assert.Contains(t, out, "Article.datePublished")
}

func TestValidateCmd_Stdin(t *testing.T) {
	rootCmd.SetIn(strings.NewReader(articleGraph))
	out, err := run(t, "validate", "-", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"issues"`)
}

func newBlogSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/blog/winter-tips/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(blogPage))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClassifyCmd(t *testing.T) {
	srv := newBlogSite(t)
	out, err := run(t, "classify", srv.URL+"/blog/winter-tips/")
	require.NoError(t, err)
	assert.Contains(t, out, ": article")
	assert.Contains(t, out, "scores:")
}

func TestGenerateCmd(t *testing.T) {
	srv := newBlogSite(t)
	out, err := run(t, "generate", srv.URL+"/blog/winter-tips/")
	require.NoError(t, err)
	assert.Contains(t, out, `"@graph"`)
	assert.Contains(t, out, `"Article"`)
}

func TestGenerateCmd_AIModeWithoutProvider(t *testing.T) {
	srv := newBlogSite(t)
	_, err := run(t, "generate", srv.URL+"/blog/winter-tips/", "--mode", "ai")
	assert.True(t, errors.Is(err, models.ErrLLMUnavailable), "got %v", err)
}

func TestBatchCmd_OutputFileInRowOrder(t *testing.T) {
	srv := newBlogSite(t)
	page := srv.URL + "/blog/winter-tips/"
	input := writeFile(t, "urls.ndjson", `{"url":"`+page+`"}`+"\n"+`{"url":"`+page+`"}`+"\n")
	output := filepath.Join(t.TempDir(), "out.ndjson")

	out, err := run(t, "batch", input, "--output", output, "--workers", "2")
	require.NoError(t, err)
	assert.Empty(t, out, "results go to the file, not stdout")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"index":0`)
	assert.Contains(t, lines[0], `"graph"`)
	assert.Contains(t, lines[1], `"index":1`)
	assert.Contains(t, lines[1], `"skipped":true`)
}

func TestInsertCmd_RequiresDatabase(t *testing.T) {
	_, err := run(t, "insert", "--from", writeFile(t, "g.json", articleGraph), "--post-id", "1")
	assert.True(t, errors.Is(err, models.ErrInvalidInput), "got %v", err)
}

func TestInsertAndRollback(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "wp.db")

	seed, err := database.Open(database.SQLite, dsn, "wp_")
	require.NoError(t, err)
	require.NoError(t, seed.EnsureSchema(ctx))
	postID, err := seed.CreatePost(ctx, "winter-tips", "Winter tips", "post")
	require.NoError(t, err)
	_, err = seed.InsertMeta(ctx, postID, "rank_math_schema_Service", "old")
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	keys := func() []string {
		s, err := database.Open(database.SQLite, dsn, "wp_")
		require.NoError(t, err)
		defer s.Close()
		rows, err := s.ListMeta(ctx, postID)
		require.NoError(t, err)
		var out []string
		for _, r := range rows {
			out = append(out, r.Key)
		}
		return out
	}

	graph := writeFile(t, "g.json", articleGraph)
	// backups must outlive each run
	db := []string{"--db-driver", "sqlite", "--db-url", dsn, "--backup-dir", t.TempDir()}
	id := strconv.FormatInt(postID, 10)

	// dry run
	out, err := run(t, append([]string{"insert", "--from", graph, "--slug", "winter-tips"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")
	assert.Contains(t, out, "rank_math_schema_Article primary")
	assert.Contains(t, out, "Organization (reference only)")
	assert.Equal(t, []string{"rank_math_schema_Service"}, keys())

	out, err = run(t, append([]string{"insert", "--from", graph, "--slug", "winter-tips", "--execute"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "written")
	assert.Contains(t, out, "undo with: schegen rollback --post-id "+id+" --execute")
	assert.ElementsMatch(t, []string{"rank_math_schema_WebPage", "rank_math_schema_Article", "rank_math_rich_snippet"}, keys())

	out, err = run(t, append([]string{"backups", "--post-id", id}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "1 rows  rank_math_schema_Service")

	out, err = run(t, append([]string{"rollback", "--post-id", id}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "would restore 1 rows")
	assert.Len(t, keys(), 3)

	out, err = run(t, append([]string{"rollback", "--post-id", id, "--execute"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "restored 1 rows")
	assert.Equal(t, []string{"rank_math_schema_Service"}, keys())
}

func TestInsertCmd_Only(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "wp.db")
	seed, err := database.Open(database.SQLite, dsn, "wp_")
	require.NoError(t, err)
	require.NoError(t, seed.EnsureSchema(ctx))
	postID, err := seed.CreatePost(ctx, "winter-tips", "Winter tips", "post")
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	graph := writeFile(t, "g.json", articleGraph)
	id := strconv.FormatInt(postID, 10)
	out, err := run(t, "insert", "--from", graph, "--post-id", id, "--only", "Article", "--primary", "--execute",
		"--db-driver", "sqlite", "--db-url", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "INSERT post "+id+" meta rank_math_schema_Article (written)")

	_, err = run(t, "insert", "--from", graph, "--post-id", id, "--only", "FAQPage",
		"--db-driver", "sqlite", "--db-url", dsn)
	assert.True(t, errors.Is(err, models.ErrNotFound), "got %v", err)
}
