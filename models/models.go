// models/models.go
package models

import (
	"strings"
	"time"
)

type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Crumb struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// WordPress post types as reported by the scraper.
const (
	PostTypePost    = "post"
	PostTypePage    = "page"
	PostTypeUnknown = "unknown"
)

type WordPressInfo struct {
	PostType string `json:"postType"`
}

// PageData is everything the scraper pulled out of a single URL. Missing
// values are zero values; nothing downstream probes for absent keys.
type PageData struct {
	URL           string        `json:"url"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Content       string        `json:"content"`
	Headings      []Heading     `json:"headings"`
	Author        string        `json:"author"`
	DatePublished string        `json:"datePublished"`
	DateModified  string        `json:"dateModified"`
	FeaturedImage string        `json:"featuredImage"`
	Categories    []string      `json:"categories"`
	Tags          []string      `json:"tags"`
	FAQs          []FAQ         `json:"faqs"`
	Breadcrumbs   []Crumb       `json:"breadcrumbs"`
	Phone         string        `json:"phone"`
	ServiceAreas  []string      `json:"serviceAreas"`
	WordPress     WordPressInfo `json:"wordpressInfo"`
}

type PostalAddress struct {
	StreetAddress   string `json:"streetAddress,omitempty" toml:"street_address"`
	AddressLocality string `json:"addressLocality,omitempty" toml:"locality"`
	AddressRegion   string `json:"addressRegion,omitempty" toml:"region"`
	PostalCode      string `json:"postalCode,omitempty" toml:"postal_code"`
	AddressCountry  string `json:"addressCountry,omitempty" toml:"country"`
}

// IsEmpty reports whether no address field is set.
func (a PostalAddress) IsEmpty() bool {
	return a == PostalAddress{}
}

// HasLocation reports whether a street or a locality is present.
func (a PostalAddress) HasLocation() bool {
	return strings.TrimSpace(a.StreetAddress) != "" || strings.TrimSpace(a.AddressLocality) != ""
}

type OrgInfo struct {
	Name         string        `json:"name" toml:"name"`
	URL          string        `json:"url" toml:"url"`
	Logo         string        `json:"logo,omitempty" toml:"logo"`
	Phone        string        `json:"phone,omitempty" toml:"phone"`
	Address      PostalAddress `json:"address" toml:"address"`
	BusinessType BusinessType  `json:"businessType,omitempty" toml:"business_type"`
	SameAs       []string      `json:"sameAs,omitempty" toml:"same_as"`
}

// Options tune a single generation call.
type Options struct {
	AreaServed   string         `json:"areaServed,omitempty"`
	BusinessType BusinessType   `json:"businessType,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	Address      *PostalAddress `json:"address,omitempty"`
	SameAs       []string       `json:"sameAs,omitempty"`
}

// Areas splits the comma-joined AreaServed value, dropping blanks.
func (o Options) Areas() []string {
	return SplitList(o.AreaServed)
}

// SplitList splits a comma-separated list, trimming entries and dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type PageType string

const (
	PageArticle  PageType = "article"
	PageService  PageType = "service"
	PageLocation PageType = "location"
)

func ParsePageType(s string) (PageType, bool) {
	switch PageType(strings.ToLower(strings.TrimSpace(s))) {
	case PageArticle:
		return PageArticle, true
	case PageService:
		return PageService, true
	case PageLocation:
		return PageLocation, true
	}
	return "", false
}

type BatchStats struct {
	PagesProcessed int           `json:"pages_processed"`
	PagesSkipped   int           `json:"pages_skipped"`
	Errors         int           `json:"errors"`
	Duration       time.Duration `json:"duration"`
}
