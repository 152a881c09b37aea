// Package ioformats reads batch inputs and writes batch results.
package ioformats

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/liamtostring/schegen/models"
)

// Item is one batch row. Only URL is required; Slug and PageType let a
// row target a specific post or force a page type.
type Item struct {
	URL      string `json:"url"`
	Slug     string `json:"slug,omitempty"`
	PageType string `json:"type,omitempty"`
}

// ReadItems reads a CSV (header with a "url" column) or NDJSON file.
// Unknown extensions try CSV first, then NDJSON.
func ReadItems(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".ndjson", ".jsonl":
		return ReadNDJSON(f)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if items, err := ReadCSV(strings.NewReader(string(data))); err == nil && len(items) > 0 {
		return items, nil
	}
	return ReadNDJSON(strings.NewReader(string(data)))
}

func ReadCSV(r io.Reader) ([]Item, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty csv", models.ErrInvalidInput)
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	urlCol, ok := cols["url"]
	if !ok {
		return nil, fmt.Errorf("%w: csv must contain a 'url' header column", models.ErrInvalidInput)
	}
	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []Item
	for _, row := range rows[1:] {
		if urlCol >= len(row) || strings.TrimSpace(row[urlCol]) == "" {
			continue
		}
		out = append(out, Item{
			URL:      strings.TrimSpace(row[urlCol]),
			Slug:     cell(row, "slug"),
			PageType: cell(row, "type"),
		})
	}
	return out, nil
}

// ReadNDJSON accepts one URL per line, either raw or as {"url": ...}.
func ReadNDJSON(r io.Reader) ([]Item, error) {
	var out []Item
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "{") {
			var it Item
			if err := json.Unmarshal([]byte(line), &it); err == nil && it.URL != "" {
				out = append(out, it)
				continue
			}
		}
		// fallback: treat whole line as url
		out = append(out, Item{URL: line})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no urls found in ndjson")
	}
	return out, nil
}

// WriteNDJSON writes any JSON-marshalable items as NDJSON to w.
func WriteNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}

// NDJSONWriter writes one record per line and is safe for concurrent use,
// so batch workers can stream results as they finish.
type NDJSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{enc: json.NewEncoder(w)}
}

func (w *NDJSONWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(v)
}
