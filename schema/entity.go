// Package schema builds, decodes, validates and repairs JSON-LD graphs made
// of a closed set of schema.org entity types.
package schema

import (
	"bytes"
	"encoding/json"
	"sort"
)

const Context = "https://schema.org"

// Kind is the closed set of entity shapes a graph may hold.
type Kind int

const (
	KindOther Kind = iota
	KindService
	KindBusiness
	KindOrganization
	KindArticle
	KindFAQ
	KindBreadcrumb
	KindPlace
	KindWebPage
	KindImage
	KindWebSite
)

func (k Kind) String() string {
	switch k {
	case KindService:
		return "service"
	case KindBusiness:
		return "business"
	case KindOrganization:
		return "organization"
	case KindArticle:
		return "article"
	case KindFAQ:
		return "faq"
	case KindBreadcrumb:
		return "breadcrumb"
	case KindPlace:
		return "place"
	case KindWebPage:
		return "webpage"
	case KindImage:
		return "image"
	case KindWebSite:
		return "website"
	}
	return "other"
}

// Entity is implemented by every graph member.
type Entity interface {
	SchemaType() string
	Kind() Kind
	Identity() string
}

// Node carries the JSON-LD keywords shared by every entity.
type Node struct {
	Type string `json:"@type"`
	ID   string `json:"@id,omitempty"`
}

func (n Node) SchemaType() string { return n.Type }
func (n Node) Identity() string   { return n.ID }

// Ref points at another entity. A Ref with an ID always serialises as a
// pure reference holding only "@id"; Fields is used only for inline values
// that have no identity.
type Ref struct {
	ID     string
	Fields map[string]any
}

func RefTo(id string) *Ref {
	if id == "" {
		return nil
	}
	return &Ref{ID: id}
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.ID != "" {
		return json.Marshal(map[string]string{"@id": r.ID})
	}
	if r.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Fields)
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		// A bare URL is treated as an inline url value.
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref{Fields: map[string]any{"url": s}}
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var list []Ref
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		if len(list) > 0 {
			*r = list[0]
		}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if id, ok := m["@id"].(string); ok && id != "" {
		*r = Ref{ID: id}
		return nil
	}
	*r = Ref{Fields: m}
	return nil
}

// Link is a URL that external graphs sometimes write as an object with a
// "url" or "@id" key.
type Link string

func (l *Link) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*l = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Link(s)
		return nil
	case data[0] == '[':
		var list []Link
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		if len(list) > 0 {
			*l = list[0]
		}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for _, k := range []string{"url", "contentUrl", "@id"} {
		if s, ok := m[k].(string); ok && s != "" {
			*l = Link(s)
			return nil
		}
	}
	*l = ""
	return nil
}

// Other holds an entity whose @type is outside the closed set. Its fields
// are kept verbatim.
type Other struct {
	Type   string
	ID     string
	Fields map[string]any
}

func (o *Other) SchemaType() string { return o.Type }
func (o *Other) Kind() Kind         { return KindOther }
func (o *Other) Identity() string   { return o.ID }

func (o *Other) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(o.Fields))
	for k := range o.Fields {
		if k == "@type" || k == "@id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(k string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return nil
	}
	if err := write("@type", o.Type); err != nil {
		return nil, err
	}
	if o.ID != "" {
		if err := write("@id", o.ID); err != nil {
			return nil, err
		}
	}
	for _, k := range keys {
		if err := write(k, o.Fields[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
