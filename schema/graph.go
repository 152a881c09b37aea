package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/utils"
)

// Identity suffixes appended to the normalised page URL.
const (
	fragService    = "#service"
	fragBusiness   = "#business"
	fragPlace      = "#place"
	fragArticle    = "#article"
	fragFAQ        = "#faq"
	fragBreadcrumb = "#breadcrumb"
	fragImage      = "#primaryimage"
	fragWebPage    = "#webpage"
)

func pageID(pageURL, frag string) string {
	return utils.NormalizeURL(pageURL) + frag
}

// WebsiteID and OrganizationID identify the site-wide entities that live
// outside a page graph.
func WebsiteID(siteURL string) string      { return siteEntityID(siteURL, "#website") }
func OrganizationID(siteURL string) string { return siteEntityID(siteURL, "#organization") }

func siteEntityID(siteURL, frag string) string {
	origin := utils.Origin(siteURL)
	if origin == "" {
		return ""
	}
	return origin + "/" + frag
}

// Graph is an ordered @graph.
type Graph struct {
	Entities []Entity
}

func (g *Graph) Add(e Entity) {
	if e == nil || isNilEntity(e) {
		return
	}
	g.Entities = append(g.Entities, e)
}

// Find returns the entity owning id.
func (g *Graph) Find(id string) (Entity, bool) {
	if id == "" {
		return nil, false
	}
	for _, e := range g.Entities {
		if e.Identity() == id {
			return e, true
		}
	}
	return nil, false
}

// FirstOfKind returns the first entity of kind k.
func (g *Graph) FirstOfKind(k Kind) (Entity, bool) {
	for _, e := range g.Entities {
		if e.Kind() == k {
			return e, true
		}
	}
	return nil, false
}

func (g *Graph) MarshalJSON() ([]byte, error) {
	entities := g.Entities
	if entities == nil {
		entities = []Entity{}
	}
	return json.Marshal(struct {
		Context string   `json:"@context"`
		Graph   []Entity `json:"@graph"`
	}{Context, entities})
}

// JSON renders the graph with two-space indentation.
func (g *Graph) JSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

func (g *Graph) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeGraph(data)
	if err != nil {
		return err
	}
	*g = *decoded
	return nil
}

// DecodeGraph parses an externally produced graph. It accepts an object
// with "@graph", a bare array of entities or a single entity. Types outside
// the closed set decode to *Other.
func DecodeGraph(data []byte) (*Graph, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty graph", models.ErrInvalidInput)
	}

	var items []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
		}
	case '{':
		var wrapper struct {
			Graph []json.RawMessage `json:"@graph"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
		}
		if wrapper.Graph != nil {
			items = wrapper.Graph
		} else {
			items = []json.RawMessage{data}
		}
	default:
		return nil, fmt.Errorf("%w: graph must be a JSON object or array", models.ErrInvalidInput)
	}

	g := &Graph{}
	for i, raw := range items {
		e, err := DecodeEntity(raw)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
		g.Add(e)
	}
	return g, nil
}

// DecodeEntity decodes one entity, dispatching on its @type.
func DecodeEntity(raw json.RawMessage) (Entity, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	typ := firstType(fields["@type"])
	if typ == "" {
		return nil, fmt.Errorf("%w: entity without @type", models.ErrInvalidInput)
	}
	fields["@type"] = typ
	normalised, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	var e Entity
	switch kindOfType(typ) {
	case KindService:
		e = &Service{}
	case KindBusiness, KindOrganization:
		e = &Business{}
	case KindArticle:
		e = &Article{}
	case KindFAQ:
		e = &FAQPage{}
	case KindBreadcrumb:
		e = &BreadcrumbList{}
	case KindPlace:
		e = &Place{}
	case KindWebPage:
		e = &WebPage{}
	case KindImage:
		e = &ImageObject{}
	case KindWebSite:
		e = &WebSite{}
	default:
		id, _ := fields["@id"].(string)
		return &Other{Type: typ, ID: id, Fields: fields}, nil
	}
	if err := json.Unmarshal(normalised, e); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrInvalidInput, typ, err)
	}
	return e, nil
}

func firstType(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

var articleTypes = map[string]bool{"Article": true, "BlogPosting": true, "NewsArticle": true, "TechArticle": true}

var webPageTypes = map[string]bool{
	"WebPage": true, "ItemPage": true, "AboutPage": true, "ContactPage": true, "CollectionPage": true,
}

// kindOfType maps a schema.org type name onto the closed set.
func kindOfType(typ string) Kind {
	switch {
	case typ == "Service":
		return KindService
	case typ == string(models.BusinessOrganization):
		return KindOrganization
	case models.BusinessType(typ).IsLocalBusiness():
		return KindBusiness
	case articleTypes[typ]:
		return KindArticle
	case typ == "FAQPage":
		return KindFAQ
	case typ == "BreadcrumbList":
		return KindBreadcrumb
	case typ == "Place":
		return KindPlace
	case webPageTypes[typ]:
		return KindWebPage
	case typ == "ImageObject":
		return KindImage
	case typ == "WebSite":
		return KindWebSite
	}
	return KindOther
}

func isNilEntity(e Entity) bool {
	switch t := e.(type) {
	case *Service:
		return t == nil
	case *Business:
		return t == nil
	case *Article:
		return t == nil
	case *FAQPage:
		return t == nil
	case *BreadcrumbList:
		return t == nil
	case *Place:
		return t == nil
	case *WebPage:
		return t == nil
	case *ImageObject:
		return t == nil
	case *WebSite:
		return t == nil
	case *Other:
		return t == nil
	}
	return false
}
