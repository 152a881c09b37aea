package schema

import (
	"strings"

	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/utils"
)

const (
	MaxHeadline     = 110
	MaxFAQQuestions = 10
	maxDescription  = 200
)

// BuildArticle builds an Article. The headline is capped at MaxHeadline
// runes, the author falls back to the organization and dateModified falls
// back to datePublished.
func BuildArticle(page models.PageData, org models.OrgInfo, _ models.Options) *Article {
	a := &Article{
		Node:             Node{Type: "Article", ID: pageID(page.URL, fragArticle)},
		Headline:         Headline(cleanTitle(page.Title)),
		Description:      describe(page),
		DatePublished:    strings.TrimSpace(page.DatePublished),
		DateModified:     strings.TrimSpace(page.DateModified),
		Keywords:         strings.Join(cleanList(page.Tags), ", "),
		MainEntityOfPage: RefTo(pageID(page.URL, fragWebPage)),
	}
	if a.DateModified == "" {
		a.DateModified = a.DatePublished
	}
	if cats := cleanList(page.Categories); len(cats) > 0 {
		a.ArticleSection = cats[0]
	}
	if strings.TrimSpace(page.FeaturedImage) != "" {
		a.Image = RefTo(pageID(page.URL, fragImage))
	}

	site := siteURL(org, page)
	if author := strings.TrimSpace(page.Author); author != "" {
		a.Author = &Author{Type: "Person", Name: author}
	} else {
		name := org.Name
		if name == "" {
			name = hostName(page.URL)
		}
		a.Author = &Author{Type: "Organization", Name: name, URL: site}
	}
	a.Publisher = RefTo(OrganizationID(site))
	return a
}

// Headline truncates s to MaxHeadline runes, ending in "..." when cut.
func Headline(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= MaxHeadline {
		return string(r)
	}
	return strings.TrimRight(string(r[:MaxHeadline-3]), " ") + "..."
}

// BuildFAQ keeps pairs whose trimmed question and answer are both
// non-blank, up to MaxFAQQuestions. It returns nil when none survive;
// callers omit the entity.
func BuildFAQ(page models.PageData, _ models.OrgInfo, _ models.Options) *FAQPage {
	var questions []Question
	for _, f := range page.FAQs {
		q, ans := strings.TrimSpace(f.Question), strings.TrimSpace(f.Answer)
		if q == "" || ans == "" {
			continue
		}
		questions = append(questions, Question{
			Type:           "Question",
			Name:           q,
			AcceptedAnswer: Answer{Type: "Answer", Text: ans},
		})
		if len(questions) == MaxFAQQuestions {
			break
		}
	}
	if len(questions) == 0 {
		return nil
	}
	return &FAQPage{
		Node:       Node{Type: "FAQPage", ID: pageID(page.URL, fragFAQ)},
		MainEntity: questions,
	}
}

// BuildBreadcrumbs uses the scraped trail, or one derived from the URL path
// when the scraper found none. Fewer than two crumbs yields nil.
func BuildBreadcrumbs(page models.PageData, _ models.OrgInfo, _ models.Options) *BreadcrumbList {
	if len(page.Breadcrumbs) == 0 {
		return URLBreadcrumbs(page.URL)
	}
	var crumbs []models.Crumb
	for _, c := range page.Breadcrumbs {
		if name := strings.TrimSpace(c.Name); name != "" {
			crumbs = append(crumbs, models.Crumb{Name: name, URL: resolveLink(page.URL, c.URL)})
		}
	}
	if len(crumbs) > 0 && crumbs[len(crumbs)-1].URL == "" {
		crumbs[len(crumbs)-1].URL = utils.NormalizeURL(page.URL)
	}
	return breadcrumbList(page.URL, crumbs)
}

// URLBreadcrumbs derives a Home > Segment > ... trail from the URL path.
func URLBreadcrumbs(pageURL string) *BreadcrumbList {
	origin := utils.Origin(pageURL)
	if origin == "" {
		return nil
	}
	crumbs := []models.Crumb{{Name: "Home", URL: origin + "/"}}
	segs := utils.PathSegments(pageURL)
	for i, seg := range segs {
		link := origin + "/" + strings.Join(segs[:i+1], "/") + "/"
		if i == len(segs)-1 {
			link = utils.NormalizeURL(pageURL)
		}
		crumbs = append(crumbs, models.Crumb{Name: utils.Titleize(seg), URL: link})
	}
	return breadcrumbList(pageURL, crumbs)
}

func breadcrumbList(pageURL string, crumbs []models.Crumb) *BreadcrumbList {
	if len(crumbs) < 2 {
		return nil
	}
	list := &BreadcrumbList{Node: Node{Type: "BreadcrumbList", ID: pageID(pageURL, fragBreadcrumb)}}
	for i, c := range crumbs {
		list.ItemListElement = append(list.ItemListElement, ListItem{
			Type:     "ListItem",
			Position: i + 1,
			Name:     c.Name,
			Item:     Link(c.URL),
		})
	}
	return list
}

// BuildImage returns the page's primary image, or nil without a featured image.
func BuildImage(page models.PageData, _ models.OrgInfo, _ models.Options) *ImageObject {
	src := strings.TrimSpace(page.FeaturedImage)
	if src == "" {
		return nil
	}
	src = resolveLink(page.URL, src)
	return &ImageObject{
		Node:       Node{Type: "ImageObject", ID: pageID(page.URL, fragImage)},
		URL:        src,
		ContentURL: src,
		Caption:    cleanTitle(page.Title),
	}
}

// BuildWebPage builds the terminating page entity. The composer links it
// to the other entities of the graph.
func BuildWebPage(page models.PageData, org models.OrgInfo, _ models.Options) *WebPage {
	return &WebPage{
		Node:          Node{Type: "WebPage", ID: pageID(page.URL, fragWebPage)},
		URL:           utils.NormalizeURL(page.URL),
		Name:          strings.TrimSpace(page.Title),
		Description:   describe(page),
		IsPartOf:      RefTo(WebsiteID(siteURL(org, page))),
		DatePublished: strings.TrimSpace(page.DatePublished),
		DateModified:  strings.TrimSpace(page.DateModified),
	}
}

// cleanTitle drops a trailing " | Site Name" style suffix.
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, sep := range []string{" | ", " - ", " – ", " — "} {
		if i := strings.LastIndex(title, sep); i > 0 {
			title = strings.TrimSpace(title[:i])
			break
		}
	}
	return title
}

// describe returns the meta description or the opening of the content.
func describe(page models.PageData) string {
	if d := strings.TrimSpace(page.Description); d != "" {
		return d
	}
	content := strings.Join(strings.Fields(page.Content), " ")
	r := []rune(content)
	if len(r) <= maxDescription {
		return content
	}
	cut := string(r[:maxDescription])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, ",.;: ") + "..."
}

func headingsText(hs []models.Heading) string {
	parts := make([]string, 0, len(hs))
	for _, h := range hs {
		parts = append(parts, h.Text)
	}
	return strings.Join(parts, "\n")
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
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
