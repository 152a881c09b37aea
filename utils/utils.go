package utils

import (
	"net/url"
	"strings"
	"unicode"
)

func IsValidURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	// Must have scheme and host
	if u.Scheme == "" || u.Host == "" {
		return false
	}

	// Only allow HTTP and HTTPS
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	// Filter out assets and non-page links
	excludePatterns := []string{
		".css", ".js", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico",
		".pdf", ".zip", ".exe", ".dmg", "mailto:", "tel:",
	}

	lowerURL := strings.ToLower(rawURL)
	for _, pattern := range excludePatterns {
		if strings.Contains(lowerURL, pattern) {
			return false
		}
	}

	return true
}

// NormalizeURL drops the fragment, lowercases scheme and host and gives an
// empty path a single slash. Identities in generated graphs derive from it.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// Origin returns scheme://host of rawURL, or "" when it cannot be parsed.
func Origin(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + strings.ToLower(u.Host)
}

// PathSegments returns the non-empty path segments of rawURL.
func PathSegments(rawURL string) []string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil
	}
	var out []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// Titleize turns a URL slug such as "ac-repair_houston" into "Ac Repair Houston".
func Titleize(slug string) string {
	if unescaped, err := url.PathUnescape(slug); err == nil {
		slug = unescaped
	}
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || r == '+' || unicode.IsSpace(r)
	})
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// Slug returns the last path segment of rawURL, or "" for the site root.
func Slug(rawURL string) string {
	segs := PathSegments(rawURL)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// Resolve makes href absolute against baseURL. It returns "" when either
// side cannot be parsed.
func Resolve(baseURL, href string) string {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return ""
	}
	link, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(link).String()
}
