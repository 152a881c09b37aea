package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/liamtostring/schegen/models"
)

type Severity string

const (
	SeverityRequired    Severity = "required"
	SeverityRecommended Severity = "recommended"
)

type Issue struct {
	EntityType string   `json:"entityType"`
	EntityID   string   `json:"entityId,omitempty"`
	Field      string   `json:"field"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s.%s: %s", i.Severity, i.EntityType, i.Field, i.Message)
}

// Report is the outcome of validating a graph.
type Report struct {
	Issues []Issue `json:"issues"`
}

// Valid reports whether no required-severity issue was found.
func (r Report) Valid() bool { return len(r.Errors()) == 0 }

func (r Report) Errors() []Issue   { return r.filter(SeverityRequired) }
func (r Report) Warnings() []Issue { return r.filter(SeverityRecommended) }

func (r Report) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Err returns a *ValidationError when the report has required issues.
func (r Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Issues: errs}
}

// ValidationError lists the required-field failures that block persistence.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		parts = append(parts, i.EntityType+"."+i.Field+": "+i.Message)
	}
	return fmt.Sprintf("%v: %s", models.ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return models.ErrValidation }

type checker struct {
	issues []Issue
	typ    string
	id     string
}

func (c *checker) add(sev Severity, field, msg string) {
	c.issues = append(c.issues, Issue{EntityType: c.typ, EntityID: c.id, Field: field, Message: msg, Severity: sev})
}

func (c *checker) require(ok bool, field string) {
	if !ok {
		c.add(SeverityRequired, field, "is required")
	}
}

func (c *checker) recommend(ok bool, field string) {
	if !ok {
		c.add(SeverityRecommended, field, "is recommended")
	}
}

func set(s string) bool { return strings.TrimSpace(s) != "" }

// Validate checks every entity against the required and recommended field
// table and checks that no identity is owned twice. The same rules apply
// to composed, generated and externally supplied graphs.
func Validate(g *Graph) Report {
	var rep Report
	if g == nil {
		return rep
	}
	seen := map[string]bool{}
	for _, e := range g.Entities {
		c := &checker{typ: e.SchemaType(), id: e.Identity()}
		if id := e.Identity(); id != "" {
			if seen[id] {
				c.add(SeverityRequired, "@id", "duplicate identity "+id)
			}
			seen[id] = true
		}
		validateEntity(c, e)
		rep.Issues = append(rep.Issues, c.issues...)
	}
	return rep
}

func validateEntity(c *checker, e Entity) {
	switch t := e.(type) {
	case *Service:
		c.require(set(t.Name), "name")
		c.require(t.Provider != nil, "provider")
		if t.Provider != nil {
			c.require(t.Provider.Address.HasLocation(), "provider.address")
		}
		c.recommend(set(t.Description), "description")
		c.recommend(set(t.ServiceType), "serviceType")
		c.recommend(len(t.AreaServed) > 0, "areaServed")
		c.recommend(set(t.URL), "url")
	case *Business:
		c.require(set(t.Name), "name")
		if t.Kind() == KindOrganization {
			c.recommend(set(t.URL), "url")
			c.recommend(set(string(t.Logo)), "logo")
			return
		}
		c.require(t.Address.HasLocation(), "address")
		c.recommend(set(t.Telephone), "telephone")
		c.recommend(set(t.URL), "url")
		c.recommend(set(string(t.Image)) || set(string(t.Logo)), "image")
		c.recommend(len(t.AreaServed) > 0, "areaServed")
	case *Place:
		c.require(set(t.Name), "name")
		c.require(t.Address.HasLocation(), "address")
	case *Article:
		c.require(set(t.Headline), "headline")
		c.require(t.Author != nil && (set(t.Author.Name) || set(t.Author.ID)), "author")
		c.require(set(t.DatePublished), "datePublished")
		c.recommend(t.Image != nil, "image")
		c.recommend(set(t.DateModified), "dateModified")
		c.recommend(t.Publisher != nil, "publisher")
		if utf8.RuneCountInString(t.Headline) > MaxHeadline {
			c.add(SeverityRecommended, "headline", fmt.Sprintf("longer than %d characters", MaxHeadline))
		}
	case *FAQPage:
		c.require(len(t.MainEntity) > 0, "mainEntity")
		for i, q := range t.MainEntity {
			c.require(set(q.Name), fmt.Sprintf("mainEntity[%d].name", i))
			c.require(set(q.AcceptedAnswer.Text), fmt.Sprintf("mainEntity[%d].acceptedAnswer.text", i))
		}
		if len(t.MainEntity) > MaxFAQQuestions {
			c.add(SeverityRecommended, "mainEntity", fmt.Sprintf("more than %d questions", MaxFAQQuestions))
		}
	case *BreadcrumbList:
		if len(t.ItemListElement) < 2 {
			c.add(SeverityRequired, "itemListElement", "needs at least 2 items")
		}
		for i, item := range t.ItemListElement {
			c.require(set(item.Name), fmt.Sprintf("itemListElement[%d].name", i))
			c.require(set(string(item.Item)), fmt.Sprintf("itemListElement[%d].item", i))
		}
	case *WebPage:
		c.require(set(t.ID), "@id")
		c.require(set(t.URL), "url")
		c.recommend(set(t.Name), "name")
		c.recommend(t.IsPartOf != nil, "isPartOf")
	case *ImageObject:
		c.require(set(t.URL) || set(t.ContentURL), "url")
	case *WebSite:
		c.require(set(t.URL), "url")
		c.recommend(set(t.Name), "name")
	}
}
