package crawler

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/utils"
)

func testFetcher() *Fetcher {
	return NewFetcher(FetcherConfig{
		Timeout: 5 * time.Second,
		Retry:   utils.RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond},
	})
}

func TestFetch_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><title>ok</title></html>"))
	}))
	defer srv.Close()

	page, err := testFetcher().Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, string(page.Body), "<title>ok</title>")
}

func TestFetch_DoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var statusErr *utils.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)

	var targetErr *models.TargetError
	require.True(t, errors.As(err, &targetErr))
	assert.Equal(t, srv.URL+"/missing", targetErr.Target)
}

func TestFetch_InvalidURL(t *testing.T) {
	_, err := testFetcher().Fetch(context.Background(), "ftp://example.com/file")
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestFetch_RejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), srv.URL)
	assert.True(t, errors.Is(err, models.ErrUnsupportedType))
}

func TestFetch_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("<html><body>compressed</body></html>"))
	gz.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	page, err := testFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, string(page.Body), "compressed")
}

func TestFetch_DecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("<html><body>caf\xe9</body></html>"))
	}))
	defer srv.Close()

	page, err := testFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, string(page.Body), "café")
}

func TestFetch_SizeCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(strings.Repeat("a", 2048)))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{SizeCap: 1024, MaxRetries: -1})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 1024 bytes")
}

func TestIsHTML(t *testing.T) {
	assert.True(t, isHTML(""))
	assert.True(t, isHTML("text/html; charset=utf-8"))
	assert.True(t, isHTML("application/xhtml+xml"))
	assert.False(t, isHTML("image/png"))
}
