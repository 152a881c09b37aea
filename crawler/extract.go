package crawler

import (
	"bytes"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/utils"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// contentSelectors locate the main content, most specific first.
var contentSelectors = []string{
	".entry-content",
	".post-content",
	"article",
	"main",
	"[role=main]",
	"#content",
	".content",
}

// Extractor turns HTML into PageData.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// Extract parses body (UTF-8 HTML) fetched from pageURL.
func (e *Extractor) Extract(pageURL string, body []byte) (models.PageData, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.PageData{}, models.WithTarget(pageURL, err)
	}
	doc.Find("script:not([type='application/ld+json']),noscript,style,template").Remove()
	nodes := jsonLDNodes(doc)

	page := models.PageData{
		URL:           pageURL,
		Title:         title(doc),
		Description:   firstAttr(doc, "content", `meta[name="description"]`, `meta[property="og:description"]`),
		FeaturedImage: resolveLink(pageURL, firstAttr(doc, "content", `meta[property="og:image"]`, `meta[name="twitter:image"]`)),
		Author:        author(doc, nodes),
		DatePublished: firstAttr(doc, "content", `meta[property="article:published_time"]`, `meta[itemprop="datePublished"]`),
		DateModified:  firstAttr(doc, "content", `meta[property="article:modified_time"]`, `meta[property="og:updated_time"]`),
		Categories:    categories(doc),
		Tags:          tags(doc),
		Phone:         phone(doc),
		ServiceAreas:  serviceAreas(doc),
		WordPress:     models.WordPressInfo{PostType: postType(doc)},
	}
	fillFromArticleLD(&page, nodes)
	if page.DatePublished == "" {
		page.DatePublished = firstAttr(doc, "datetime", "article time[datetime]", ".entry-date[datetime]", "time.published[datetime]")
	}

	root := contentRoot(doc)
	page.Headings = headings(root)
	page.FAQs = faqs(doc, nodes)
	page.Breadcrumbs = breadcrumbs(doc, nodes, pageURL)

	clean := root.Clone()
	clean.Find("nav,header,footer,aside,form,script").Remove()
	page.Content = collapse(clean.Text())
	return page, nil
}

// Markdown renders the page's main content for prompts.
func (e *Extractor) Markdown(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find("script,noscript,style,template,nav,header,footer,aside,form,iframe,svg").Remove()
	html, err := goquery.OuterHtml(contentRoot(doc))
	if err != nil {
		return "", err
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func firstAttr(doc *goquery.Document, attr string, selectors ...string) string {
	for _, sel := range selectors {
		if v := strings.TrimSpace(doc.Find(sel).First().AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v := collapse(doc.Find(sel).First().Text()); v != "" {
			return v
		}
	}
	return ""
}

func title(doc *goquery.Document) string {
	if t := collapse(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if t := firstAttr(doc, "content", `meta[property="og:title"]`); t != "" {
		return t
	}
	return collapse(doc.Find("h1").First().Text())
}

func contentRoot(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 && collapse(s.Text()) != "" {
			return s
		}
	}
	return doc.Find("body")
}

func headings(root *goquery.Selection) []models.Heading {
	var out []models.Heading
	root.Find("h1,h2,h3,h4,h5,h6").Each(func(_ int, s *goquery.Selection) {
		text := collapse(s.Text())
		if text == "" {
			return
		}
		level := int(goquery.NodeName(s)[1] - '0')
		out = append(out, models.Heading{Level: level, Text: text})
	})
	return out
}

func author(doc *goquery.Document, nodes []map[string]any) string {
	if a := firstAttr(doc, "content", `meta[name="author"]`, `meta[property="article:author"]`); a != "" && !strings.HasPrefix(a, "http") {
		return a
	}
	if a := firstText(doc, `[rel="author"]`, ".author-name", ".byline .author", ".entry-author", ".author.vcard"); a != "" {
		return a
	}
	for _, n := range nodes {
		if hasType(n, "Article", "BlogPosting", "NewsArticle") {
			if a := ldString(n, "author"); a != "" && !strings.HasPrefix(a, "http") {
				return a
			}
		}
	}
	return ""
}

func fillFromArticleLD(page *models.PageData, nodes []map[string]any) {
	for _, n := range nodes {
		if !hasType(n, "Article", "BlogPosting", "NewsArticle", "WebPage") {
			continue
		}
		if page.DatePublished == "" {
			page.DatePublished = ldString(n, "datePublished")
		}
		if page.DateModified == "" {
			page.DateModified = ldString(n, "dateModified")
		}
		if page.FeaturedImage == "" {
			page.FeaturedImage = resolveLink(page.URL, ldURL(n, "image"))
		}
	}
}

func categories(doc *goquery.Document) []string {
	var out []string
	doc.Find(`meta[property="article:section"]`).Each(func(_ int, s *goquery.Selection) {
		out = appendUnique(out, s.AttrOr("content", ""))
	})
	doc.Find(`a[rel~="category"]`).Each(func(_ int, s *goquery.Selection) {
		out = appendUnique(out, collapse(s.Text()))
	})
	return out
}

func tags(doc *goquery.Document) []string {
	var out []string
	doc.Find(`meta[property="article:tag"]`).Each(func(_ int, s *goquery.Selection) {
		out = appendUnique(out, s.AttrOr("content", ""))
	})
	doc.Find(`a[rel="tag"]`).Each(func(_ int, s *goquery.Selection) {
		out = appendUnique(out, collapse(s.Text()))
	})
	return out
}

func appendUnique(list []string, v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, v) {
			return list
		}
	}
	return append(list, v)
}

func phone(doc *goquery.Document) string {
	tel := strings.TrimSpace(doc.Find(`a[href^="tel:"]`).First().AttrOr("href", ""))
	tel = strings.TrimSpace(strings.TrimPrefix(tel, "tel:"))
	return strings.ReplaceAll(tel, "%20", " ")
}

func serviceAreas(doc *goquery.Document) []string {
	var out []string
	doc.Find(".service-areas li, .service-area li, #service-areas li, .areas-served li, [class*='service-area'] li").Each(func(_ int, s *goquery.Selection) {
		out = appendUnique(out, collapse(s.Text()))
	})
	return out
}

// postType reads the WordPress body classes.
func postType(doc *goquery.Document) string {
	classes := strings.Fields(doc.Find("body").AttrOr("class", ""))
	has := func(c string) bool {
		for _, cls := range classes {
			if cls == c {
				return true
			}
		}
		return false
	}
	switch {
	case has("single-post") || has("single-format-standard"):
		return models.PostTypePost
	case has("page") || has("page-template-default"):
		return models.PostTypePage
	}
	for _, cls := range classes {
		if strings.HasPrefix(cls, "page-template") || strings.HasPrefix(cls, "page-id-") {
			return models.PostTypePage
		}
		if strings.HasPrefix(cls, "postid-") {
			return models.PostTypePost
		}
	}
	return models.PostTypeUnknown
}

func faqs(doc *goquery.Document, nodes []map[string]any) []models.FAQ {
	var out []models.FAQ
	for _, n := range nodes {
		if !hasType(n, "FAQPage") {
			continue
		}
		items, _ := n["mainEntity"].([]any)
		for _, it := range items {
			q, ok := it.(map[string]any)
			if !ok {
				continue
			}
			answer := ""
			if a, ok := q["acceptedAnswer"].(map[string]any); ok {
				answer = ldString(a, "text")
			}
			out = append(out, models.FAQ{Question: ldString(q, "name"), Answer: stripTags(answer)})
		}
	}
	if len(out) > 0 {
		return out
	}

	doc.Find("details").Each(func(_ int, s *goquery.Selection) {
		summary := s.Find("summary").First()
		q := collapse(summary.Text())
		a := collapse(strings.TrimPrefix(collapse(s.Text()), q))
		if q != "" && a != "" {
			out = append(out, models.FAQ{Question: q, Answer: a})
		}
	})
	if len(out) > 0 {
		return out
	}

	doc.Find(".faq-item, .faq .item, [class*='faq'] .accordion-item").Each(func(_ int, s *goquery.Selection) {
		q := collapse(s.Find(".faq-question, .question, h3, h4, .accordion-header").First().Text())
		a := collapse(s.Find(".faq-answer, .answer, p, .accordion-body").First().Text())
		if q != "" && a != "" {
			out = append(out, models.FAQ{Question: q, Answer: a})
		}
	})
	return out
}

func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return collapse(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapse(s)
	}
	return collapse(doc.Text())
}

func breadcrumbs(doc *goquery.Document, nodes []map[string]any, pageURL string) []models.Crumb {
	var out []models.Crumb
	for _, n := range nodes {
		if !hasType(n, "BreadcrumbList") {
			continue
		}
		items, _ := n["itemListElement"].([]any)
		for _, it := range items {
			li, ok := it.(map[string]any)
			if !ok {
				continue
			}
			name := ldString(li, "name")
			link := ldString(li, "item")
			if item, ok := li["item"].(map[string]any); ok {
				if name == "" {
					name = ldString(item, "name")
				}
				link = ldString(item, "@id")
				if link == "" {
					link = ldString(item, "url")
				}
			}
			out = append(out, models.Crumb{Name: name, URL: resolveLink(pageURL, link)})
		}
		if len(out) > 0 {
			return out
		}
	}

	trail := doc.Find(`nav[aria-label*="readcrumb"], .breadcrumb, .breadcrumbs, #breadcrumbs, .rank-math-breadcrumb, .yoast-breadcrumb`).First()
	trail.Find("a, span.last, .breadcrumb_last, [aria-current]").Each(func(_ int, s *goquery.Selection) {
		name := collapse(s.Text())
		if name == "" {
			return
		}
		out = append(out, models.Crumb{Name: name, URL: resolveLink(pageURL, s.AttrOr("href", ""))})
	})
	return out
}

func resolveLink(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if abs := utils.Resolve(base, ref); abs != "" {
		return abs
	}
	return ref
}
