package classifier

import "regexp"

// Weights are the per-signal scores. Only their relative order is a
// contract: URL families and post type dominate single keyword hits.
type Weights struct {
	URLArticle      int
	URLService      int
	URLLocation     int
	PostTypePost    int
	PostTypePage    int
	Author          int
	PublishDate     int
	Categories      int
	Tags            int
	KeywordHit      int
	KeywordCap      int
	HeadingHint     int
	LocationPhrase  int
	CityInTitle     int
	NoPublishDate   int
	LocationFloor   int
	ContentScanSize int
}

// DefaultWeights are the tuned defaults.
func DefaultWeights() Weights {
	return Weights{
		URLArticle:      3,
		URLService:      3,
		URLLocation:     3,
		PostTypePost:    3,
		PostTypePage:    1,
		Author:          2,
		PublishDate:     2,
		Categories:      1,
		Tags:            1,
		KeywordHit:      1,
		KeywordCap:      3,
		HeadingHint:     1,
		LocationPhrase:  1,
		CityInTitle:     2,
		NoPublishDate:   1,
		LocationFloor:   3,
		ContentScanSize: 1000,
	}
}

var articleURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/(blog|news|articles?|posts?|insights|resources|tips|guides?)(/|$)`),
	regexp.MustCompile(`/\d{4}/\d{2}(/|$)`),
	regexp.MustCompile(`(?i)/(category|tag|author)/`),
	regexp.MustCompile(`(?i)/(how-to|what-is|why-|when-to|\d+-(ways|tips|signs|reasons))`),
}

var serviceURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/services?(/|$|-)`),
	regexp.MustCompile(`(?i)(repair|replacement|installation|install|maintenance|tune-up|cleaning|inspection)`),
	regexp.MustCompile(`(?i)(hvac|plumb|electric|roof|furnace|heating|cooling|air-condition|water-heater|drain)`),
}

var locationURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/(locations?|service-areas?|areas?-we-serve|areas-served|cities)(/|$)`),
	regexp.MustCompile(`(?i)-(in|near)-[a-z]+`),
}

var serviceKeywords = []string{
	"free estimate", "free quote", "call now", "call today", "schedule service",
	"book now", "licensed", "insured", "certified technicians", "same-day", "same day",
	"24/7", "emergency service", "satisfaction guaranteed", "financing available",
	"our services", "request service",
}

var articleKeywords = []string{
	"read more", "minute read", "min read", "posted on", "published on", "written by",
	"share this", "related posts", "leave a comment", "in this article", "in this post",
}

var serviceHeadingHints = []string{
	"our services", "what we offer", "why choose us", "how it works", "our process",
	"pricing", "get a quote", "schedule",
}

var locationHeadingHints = []string{
	"areas we serve", "service area", "serving", "locations", "near you", "neighborhoods",
	"directions", "find us",
}

var articleHeadingHints = []string{
	"table of contents", "conclusion", "final thoughts", "related posts", "faq", "key takeaways",
	"introduction", "summary",
}

// locationPhraseRe is case sensitive on purpose: the place name must be capitalised.
var locationPhraseRe = regexp.MustCompile(`\b(?:[Ii]n|[Ss]erving|[Nn]ear|[Tt]hroughout)\s+(?:the\s+)?[A-Z][a-zA-Z]+(?:\s[A-Z][a-zA-Z]+)?(?:,\s*[A-Z]{2})?\b`)
