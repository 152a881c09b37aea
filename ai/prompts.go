package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/schema"
	"github.com/liamtostring/schegen/utils"
)

const maxPromptContent = 8000

func generatePrompt(page models.PageData, markdown string, org models.OrgInfo, opts models.Options, pageType models.PageType) string {
	pageURL := utils.NormalizeURL(page.URL)
	content := markdown
	if strings.TrimSpace(content) == "" {
		content = page.Content
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You write schema.org JSON-LD for a %s page on a WordPress site.\n\n", pageType)
	b.WriteString("Return ONLY a JSON object of the form {\"@context\":\"https://schema.org\",\"@graph\":[...]} with no commentary.\n\n")
	b.WriteString("Rules:\n")
	switch pageType {
	case models.PageLocation:
		b.WriteString("- Include a Service, a LocalBusiness (or the given business subtype) and a Place.\n")
	case models.PageService:
		b.WriteString("- Include a Service and a LocalBusiness (or the given business subtype).\n")
	default:
		b.WriteString("- Include an Article with headline (at most 110 characters), author and datePublished.\n")
	}
	fmt.Fprintf(&b, "- Use these @id values: %s#service, %s#business, %s#place, %s#article, %s#faq, %s#breadcrumb, %s#primaryimage, %s#webpage.\n",
		pageURL, pageURL, pageURL, pageURL, pageURL, pageURL, pageURL, pageURL)
	fmt.Fprintf(&b, "- The site entities are %s and %s; refer to them as {\"@id\": ...} only.\n",
		schema.WebsiteID(page.URL), schema.OrganizationID(page.URL))
	b.WriteString("- A reference to another entity contains only its @id.\n")
	b.WriteString("- Every LocalBusiness and Place has a PostalAddress with a street or a locality.\n")
	b.WriteString("- Add a FAQPage only when the page has questions and answers, at most 10.\n")
	b.WriteString("- Do not invent phone numbers, prices, ratings or reviews.\n\n")

	b.WriteString("Organization:\n")
	b.WriteString(mustJSON(org))
	b.WriteString("\n\nOptions:\n")
	b.WriteString(mustJSON(opts))
	b.WriteString("\n\nPage:\n")
	b.WriteString(mustJSON(struct {
		URL           string           `json:"url"`
		Title         string           `json:"title"`
		Description   string           `json:"description,omitempty"`
		Author        string           `json:"author,omitempty"`
		DatePublished string           `json:"datePublished,omitempty"`
		DateModified  string           `json:"dateModified,omitempty"`
		FeaturedImage string           `json:"featuredImage,omitempty"`
		Phone         string           `json:"phone,omitempty"`
		ServiceAreas  []string         `json:"serviceAreas,omitempty"`
		FAQs          []models.FAQ     `json:"faqs,omitempty"`
		Breadcrumbs   []models.Crumb   `json:"breadcrumbs,omitempty"`
		Headings      []models.Heading `json:"headings,omitempty"`
	}{pageURL, page.Title, page.Description, page.Author, page.DatePublished, page.DateModified,
		page.FeaturedImage, page.Phone, page.ServiceAreas, page.FAQs, page.Breadcrumbs, page.Headings}))
	b.WriteString("\n\nContent:\n")
	b.WriteString(truncate(content, maxPromptContent))
	b.WriteString("\n")
	return b.String()
}

func verifyPrompt(page models.PageData, graph []byte) string {
	var b strings.Builder
	b.WriteString("Review this schema.org JSON-LD graph against the page it describes.\n")
	b.WriteString("Report facts in the graph that the page does not support and important facts the graph is missing.\n")
	b.WriteString("Return ONLY a JSON object: {\"issues\":[{\"entityType\":\"...\",\"field\":\"...\",\"message\":\"...\",\"severity\":\"recommended\"}]}.\n")
	b.WriteString("Return {\"issues\":[]} when the graph is accurate.\n\n")
	fmt.Fprintf(&b, "Page URL: %s\nTitle: %s\nDescription: %s\n\nContent:\n%s\n\nGraph:\n%s\n",
		page.URL, page.Title, page.Description, truncate(page.Content, maxPromptContent), graph)
	return b.String()
}

func mustJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
