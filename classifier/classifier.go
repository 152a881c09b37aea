package classifier

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/liamtostring/schegen/locale"
	"github.com/liamtostring/schegen/models"
)

// Scores are the summed signal weights per page type.
type Scores struct {
	Article  int `json:"article"`
	Service  int `json:"service"`
	Location int `json:"location"`
}

// Result is a classification with the reasons that produced it.
type Result struct {
	Type    models.PageType `json:"type"`
	Scores  Scores          `json:"scores"`
	Reasons []string        `json:"reasons,omitempty"`
}

// Classifier picks a page type from URL, markup and content signals.
type Classifier struct {
	weights Weights
}

// New returns a Classifier using DefaultWeights.
func New() *Classifier { return &Classifier{weights: DefaultWeights()} }

// NewWithWeights returns a Classifier with tuned weights.
func NewWithWeights(w Weights) *Classifier { return &Classifier{weights: w} }

// Classify scores the URL and page against every signal family and picks a
// page type. It always returns a definite answer.
func (c *Classifier) Classify(rawURL string, page models.PageData) Result {
	w := c.weights
	var s Scores
	var reasons []string
	add := func(score *int, n int, reason string) {
		if n == 0 {
			return
		}
		*score += n
		reasons = append(reasons, reason)
	}

	path := urlPath(rawURL)

	// URL families
	if matchesAny(articleURLPatterns, path) {
		add(&s.Article, w.URLArticle, "url: blog/article path")
	}
	if matchesAny(serviceURLPatterns, path) {
		add(&s.Service, w.URLService, "url: service path")
	}
	if matchesAny(locationURLPatterns, path) {
		add(&s.Location, w.URLLocation, "url: location path")
	} else if city, ok := locale.InferCityFromText(locale.SlugText(path)); ok {
		add(&s.Location, w.URLLocation, "url: city slug "+city)
	}

	// WordPress hint
	switch page.WordPress.PostType {
	case models.PostTypePost:
		add(&s.Article, w.PostTypePost, "wordpress: post")
	case models.PostTypePage:
		add(&s.Service, w.PostTypePage, "wordpress: page")
	}

	// Article metadata
	if strings.TrimSpace(page.Author) != "" {
		add(&s.Article, w.Author, "author present")
	}
	hasDate := strings.TrimSpace(page.DatePublished) != ""
	if hasDate {
		add(&s.Article, w.PublishDate, "publish date present")
	}
	if len(page.Categories) > 0 {
		add(&s.Article, w.Categories, "categories present")
	}
	if len(page.Tags) > 0 {
		add(&s.Article, w.Tags, "tags present")
	}

	// Keywords
	text := strings.ToLower(page.Title + " " + page.Content)
	if n := keywordScore(text, serviceKeywords, w.KeywordHit, w.KeywordCap); n > 0 {
		add(&s.Service, n, "service keywords")
	}
	if n := keywordScore(text, articleKeywords, w.KeywordHit, w.KeywordCap); n > 0 {
		add(&s.Article, n, "article keywords")
	}

	// Headings
	headings := headingText(page.Headings)
	if containsAny(headings, serviceHeadingHints) {
		add(&s.Service, w.HeadingHint, "service heading")
	}
	if containsAny(headings, locationHeadingHints) {
		add(&s.Location, w.HeadingHint, "location heading")
	}
	if containsAny(headings, articleHeadingHints) {
		add(&s.Article, w.HeadingHint, "article heading")
	}

	// Location phrases
	head := page.Title + " " + truncate(page.Content, w.ContentScanSize)
	if locationPhraseRe.MatchString(head) {
		add(&s.Location, w.LocationPhrase, "location phrase")
	}
	if city, ok := locale.InferCityFromText(page.Title); ok {
		add(&s.Location, w.CityInTitle, "city in title: "+city)
	}

	// A missing publish date favours service and location, but only when
	// they already have evidence of their own.
	if !hasDate {
		if s.Service > 0 {
			add(&s.Service, w.NoPublishDate, "no publish date")
		}
		if s.Location > 0 {
			add(&s.Location, w.NoPublishDate, "no publish date")
		}
	}

	return Result{Type: decide(s, w.LocationFloor), Scores: s, Reasons: reasons}
}

// decide applies the tie-break rules: location needs the top score and the
// floor, service needs to beat article outright, article is the fallback.
func decide(s Scores, floor int) models.PageType {
	top := s.Article
	if s.Service > top {
		top = s.Service
	}
	if s.Location >= top && s.Location >= floor {
		return models.PageLocation
	}
	if s.Service > s.Article {
		return models.PageService
	}
	return models.PageArticle
}

func urlPath(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Path
}

func keywordScore(text string, keywords []string, per, limit int) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n += per
		}
	}
	if n > limit {
		n = limit
	}
	return n
}

func headingText(hs []models.Heading) string {
	parts := make([]string, 0, len(hs))
	for _, h := range hs {
		parts = append(parts, h.Text)
	}
	return strings.ToLower(strings.Join(parts, " | "))
}

func containsAny(text string, phrases []string) bool {
	if text == "" {
		return false
	}
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	if s == "" {
		return false
	}
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
