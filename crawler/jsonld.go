package crawler

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jsonLDNodes returns every object found in the page's JSON-LD blocks,
// with @graph containers and arrays flattened. Broken blocks are skipped.
func jsonLDNodes(doc *goquery.Document) []map[string]any {
	var nodes []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &v); err != nil {
			return
		}
		nodes = flattenLD(v, nodes)
	})
	return nodes
}

func flattenLD(v any, out []map[string]any) []map[string]any {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			out = flattenLD(item, out)
		}
	case map[string]any:
		if graph, ok := t["@graph"]; ok {
			return flattenLD(graph, out)
		}
		out = append(out, t)
	}
	return out
}

// ldTypes returns the node's @type values.
func ldTypes(node map[string]any) []string {
	switch t := node["@type"].(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, v := range t {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func hasType(node map[string]any, names ...string) bool {
	for _, typ := range ldTypes(node) {
		for _, n := range names {
			if strings.EqualFold(typ, n) {
				return true
			}
		}
	}
	return false
}

// ldString reads a string field. Objects yield their name, url or @id;
// arrays yield their first string.
func ldString(node map[string]any, key string) string {
	return ldText(node[key])
}

func ldText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if s := ldText(item); s != "" {
				return s
			}
		}
	case map[string]any:
		for _, k := range []string{"name", "url", "contentUrl", "@id", "text"} {
			if s, ok := t[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func ldStrings(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range t {
			if s := ldText(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// ldURL reads a link field; objects yield url, contentUrl or @id.
func ldURL(node map[string]any, key string) string {
	switch t := node[key].(type) {
	case map[string]any:
		for _, k := range []string{"url", "contentUrl", "@id"} {
			if s, ok := t[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		return ""
	case []any:
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				if s := ldURL(map[string]any{key: m}, key); s != "" {
					return s
				}
			} else if s := ldText(item); s != "" {
				return s
			}
		}
		return ""
	}
	return ldText(node[key])
}
