package benchmark

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamtostring/schegen/ai"
	"github.com/liamtostring/schegen/crawler"
	"github.com/liamtostring/schegen/generator"
	"github.com/liamtostring/schegen/ioformats"
	"github.com/liamtostring/schegen/models"
)

type constModel struct{ reply string }

func (m constModel) Name() string { return "const" }

func (m constModel) Generate(context.Context, string) (string, error) { return m.reply, nil }

func TestRunComparison(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>` + r.URL.Path + `</title></head><body class="single-post">
<article><h1>Post</h1><p>Text for ` + r.URL.Path + `</p></article></body></html>`))
	}))
	defer srv.Close()

	model := constModel{reply: `{"@graph":[{"@type":"Article","headline":"Post","author":"A","datePublished":"2024-01-01"}]}`}
	svc := generator.New(generator.Deps{
		Fetcher: crawler.NewFetcher(crawler.FetcherConfig{Timeout: 5 * time.Second}),
		Profile: &models.OrgInfo{Name: "Acme", URL: "https://acme.example/"},
		AI:      ai.NewSchemaGenerator(ai.NewClient(model)),
	})

	items := []ioformats.Item{
		{URL: srv.URL + "/blog/one/", PageType: "article"},
		{URL: srv.URL + "/blog/two/", PageType: "article"},
	}

	var out bytes.Buffer
	cmp, err := RunComparison(context.Background(), svc, items, 2, &out)
	require.NoError(t, err)

	assert.Equal(t, 2, cmp.Heuristic.Batch.PagesProcessed)
	assert.Equal(t, 2, cmp.AI.Batch.PagesProcessed)
	assert.Equal(t, 2, cmp.AI.Entities)
	assert.Greater(t, cmp.Heuristic.Entities, cmp.AI.Entities)
	assert.Equal(t, 2, cmp.Compared)
	assert.Equal(t, 0, cmp.Agreeing)

	assert.Contains(t, out.String(), "Generation Comparison Results")
	assert.Contains(t, out.String(), "Pages Processed")
	assert.Contains(t, out.String(), "Entity Type Agreement: 0/2")
}

func TestRunComparison_NeedsAI(t *testing.T) {
	svc := generator.New(generator.Deps{})
	_, err := RunComparison(context.Background(), svc, nil, 1, &bytes.Buffer{})
	assert.True(t, errors.Is(err, models.ErrLLMUnavailable))
}

func TestCalculations(t *testing.T) {
	assert.Equal(t, "+50.0%", calculateImprovement(2, 3))
	assert.Equal(t, "-50.0%", calculateImprovement(2, 1))
	assert.Equal(t, "N/A", calculateImprovement(0, 1))
	assert.Equal(t, "+50.0%", calculateImprovementReverse(2, 1))
	assert.Equal(t, "0%", calculateDurationImprovement(time.Second, time.Second))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "12 B", formatBytes(12))
}
