package schema

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/liamtostring/schegen/models"
)

type PostalAddress struct {
	Type            string `json:"@type"`
	StreetAddress   string `json:"streetAddress,omitempty"`
	AddressLocality string `json:"addressLocality,omitempty"`
	AddressRegion   string `json:"addressRegion,omitempty"`
	PostalCode      string `json:"postalCode,omitempty"`
	AddressCountry  string `json:"addressCountry,omitempty"`
}

func NewPostalAddress(a models.PostalAddress) *PostalAddress {
	return &PostalAddress{
		Type:            "PostalAddress",
		StreetAddress:   strings.TrimSpace(a.StreetAddress),
		AddressLocality: strings.TrimSpace(a.AddressLocality),
		AddressRegion:   strings.TrimSpace(a.AddressRegion),
		PostalCode:      strings.TrimSpace(a.PostalCode),
		AddressCountry:  strings.TrimSpace(a.AddressCountry),
	}
}

// Model converts back to the shared address type.
func (a *PostalAddress) Model() models.PostalAddress {
	if a == nil {
		return models.PostalAddress{}
	}
	return models.PostalAddress{
		StreetAddress:   a.StreetAddress,
		AddressLocality: a.AddressLocality,
		AddressRegion:   a.AddressRegion,
		PostalCode:      a.PostalCode,
		AddressCountry:  a.AddressCountry,
	}
}

// HasLocation reports whether a street or a locality is set.
func (a *PostalAddress) HasLocation() bool {
	return a != nil && a.Model().HasLocation()
}

func (a *PostalAddress) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = PostalAddress{Type: "PostalAddress", StreetAddress: strings.TrimSpace(s)}
		return nil
	}
	type plain PostalAddress
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = PostalAddress(p)
	if a.Type == "" {
		a.Type = "PostalAddress"
	}
	return nil
}

type City struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

// Areas is an areaServed list. Decoding accepts a string, a list of
// strings, an object or a list of objects.
type Areas []City

func NewAreas(names []string) Areas {
	if len(names) == 0 {
		return nil
	}
	out := make(Areas, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, City{Type: "City", Name: n})
		}
	}
	return out
}

func (a Areas) Names() []string {
	out := make([]string, 0, len(a))
	for _, c := range a {
		out = append(out, c.Name)
	}
	return out
}

func (a *Areas) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Areas
	var add func(v any)
	add = func(v any) {
		switch t := v.(type) {
		case string:
			for _, n := range models.SplitList(t) {
				out = append(out, City{Type: "City", Name: n})
			}
		case map[string]any:
			name, _ := t["name"].(string)
			if name == "" {
				return
			}
			typ, _ := t["@type"].(string)
			if typ == "" {
				typ = "City"
			}
			out = append(out, City{Type: typ, Name: name})
		case []any:
			for _, item := range t {
				add(item)
			}
		}
	}
	add(raw)
	*a = out
	return nil
}

type OfferedService struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

type Offer struct {
	Type          string          `json:"@type"`
	Name          string          `json:"name,omitempty"`
	Description   string          `json:"description,omitempty"`
	URL           string          `json:"url,omitempty"`
	PriceCurrency string          `json:"priceCurrency,omitempty"`
	Availability  string          `json:"availability,omitempty"`
	ItemOffered   *OfferedService `json:"itemOffered,omitempty"`
}

type OfferCatalog struct {
	Type            string  `json:"@type"`
	Name            string  `json:"name"`
	ItemListElement []Offer `json:"itemListElement"`
}

type EntryPoint struct {
	Type           string   `json:"@type"`
	URLTemplate    string   `json:"urlTemplate"`
	ActionPlatform []string `json:"actionPlatform,omitempty"`
}

type Action struct {
	Type   string      `json:"@type"`
	Name   string      `json:"name,omitempty"`
	Target *EntryPoint `json:"target,omitempty"`
}

// Author is a Person or, as a fallback, the publishing Organization. An
// author carrying an ID is written as a pure reference.
type Author struct {
	Type string `json:"@type"`
	ID   string `json:"@id,omitempty"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

func (a Author) MarshalJSON() ([]byte, error) {
	if a.ID != "" {
		return json.Marshal(map[string]string{"@id": a.ID})
	}
	type plain Author
	return json.Marshal(plain(a))
}

func (a *Author) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Author{Type: "Person", Name: s}
		return nil
	case len(data) > 0 && data[0] == '[':
		var list []Author
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		if len(list) > 0 {
			*a = list[0]
		}
		return nil
	}
	type plain Author
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Author(p)
	if a.Type == "" {
		a.Type = "Person"
	}
	return nil
}

type Answer struct {
	Type string `json:"@type"`
	Text string `json:"text"`
}

type Question struct {
	Type           string `json:"@type"`
	Name           string `json:"name"`
	AcceptedAnswer Answer `json:"acceptedAnswer"`
}

type ListItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Item     Link   `json:"item,omitempty"`
}
