package mutation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/liamtostring/schegen/phpserial"
	"github.com/liamtostring/schegen/schema"
)

// Metadata is the block Rank Math keeps ahead of the entity fields.
type Metadata struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Shortcode   string `json:"shortcode"`
	IsPrimary   bool   `json:"isPrimary,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

func newShortcode() string {
	return "s-" + uuid.NewString()
}

// metadataFor fills the block from the entity's own name and description.
func metadataFor(fields *phpserial.Map, typ, shortcode string, primary bool) Metadata {
	md := Metadata{Title: typ, Type: "custom", Shortcode: shortcode, IsPrimary: primary}
	if v, ok := fields.Get("name"); ok {
		md.Name, _ = v.(string)
	} else if v, ok := fields.Get("headline"); ok {
		md.Name, _ = v.(string)
	}
	if v, ok := fields.Get("description"); ok {
		md.Description, _ = v.(string)
	}
	return md
}

func (md Metadata) phpMap() *phpserial.Map {
	m := phpserial.NewMap()
	m.Set("title", md.Title)
	m.Set("type", md.Type)
	m.Set("shortcode", md.Shortcode)
	if md.IsPrimary {
		m.Set("isPrimary", true)
	}
	if md.Name != "" {
		m.Set("name", md.Name)
	}
	if md.Description != "" {
		m.Set("description", md.Description)
	}
	return m
}

// entityFields converts an entity to an ordered PHP array, without @context.
func entityFields(e schema.Entity) (*phpserial.Map, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", e.SchemaType(), err)
	}
	v, err := phpserial.FromJSON(data)
	if err != nil {
		return nil, err
	}
	fields, ok := v.(*phpserial.Map)
	if !ok {
		return nil, fmt.Errorf("encoding %s: entity is not an object", e.SchemaType())
	}
	fields.Delete("@context")
	return fields, nil
}

// Serialize renders the stored value: the metadata block first under the
// "metadata" key, then the entity fields in their JSON order.
func Serialize(e schema.Entity, shortcode string, primary bool) (string, error) {
	fields, err := entityFields(e)
	if err != nil {
		return "", err
	}
	if shortcode == "" {
		shortcode = newShortcode()
	}

	out := phpserial.NewMap()
	out.Set("metadata", metadataFor(fields, e.SchemaType(), shortcode, primary).phpMap())
	for _, entry := range fields.Entries() {
		out.Set(entry.Key, entry.Value)
	}

	data, err := phpserial.Encode(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Stored is a decoded schema row.
type Stored struct {
	Metadata Metadata
	Entity   schema.Entity
}

// Parse decodes a stored value back into its metadata and entity.
func Parse(value string) (Stored, error) {
	v, err := phpserial.Decode([]byte(value))
	if err != nil {
		return Stored{}, err
	}
	m, ok := v.(*phpserial.Map)
	if !ok {
		return Stored{}, fmt.Errorf("%w: stored value is not an array", phpserial.ErrSyntax)
	}

	var st Stored
	if raw, ok := m.Get("metadata"); ok {
		if mm, ok := raw.(*phpserial.Map); ok {
			st.Metadata = parseMetadata(mm)
		}
		m.Delete("metadata")
	}

	data, err := phpserial.ToJSON(m)
	if err != nil {
		return Stored{}, err
	}
	st.Entity, err = schema.DecodeEntity(data)
	if err != nil {
		return Stored{}, err
	}
	return st, nil
}

// parseMetadata reads the block leniently; rows written by the plugin
// itself store isPrimary as "1" rather than a boolean.
func parseMetadata(m *phpserial.Map) Metadata {
	str := func(key string) string {
		v, _ := m.Get(key)
		s, _ := v.(string)
		return s
	}
	md := Metadata{
		Title:       str("title"),
		Type:        str("type"),
		Shortcode:   str("shortcode"),
		Name:        str("name"),
		Description: str("description"),
	}
	switch v, _ := m.Get("isPrimary"); t := v.(type) {
	case bool:
		md.IsPrimary = t
	case int64:
		md.IsPrimary = t != 0
	case string:
		md.IsPrimary = t == "1" || t == "true"
	}
	return md
}

// clearPrimary drops isPrimary from a stored value's metadata block. It
// reports false when the value was not flagged or cannot be decoded.
func clearPrimary(value string) (string, bool) {
	v, err := phpserial.Decode([]byte(value))
	if err != nil {
		return value, false
	}
	m, ok := v.(*phpserial.Map)
	if !ok {
		return value, false
	}
	raw, _ := m.Get("metadata")
	mm, ok := raw.(*phpserial.Map)
	if !ok || !parseMetadata(mm).IsPrimary {
		return value, false
	}
	mm.Delete("isPrimary")
	out, err := phpserial.Encode(m)
	if err != nil {
		return value, false
	}
	return string(out), true
}

// shortcodeOf returns the shortcode of a stored value, or "".
func shortcodeOf(value string) string {
	v, err := phpserial.Decode([]byte(value))
	if err != nil {
		return ""
	}
	m, _ := v.(*phpserial.Map)
	md, _ := m.Get("metadata")
	if mm, ok := md.(*phpserial.Map); ok {
		s, _ := mm.Get("shortcode")
		code, _ := s.(string)
		return code
	}
	return ""
}

// sameValue compares two stored values ignoring the shortcode.
func sameValue(a, b string) bool {
	na, okA := withoutShortcode(a)
	nb, okB := withoutShortcode(b)
	if !okA || !okB {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return na == nb
}

func withoutShortcode(value string) (string, bool) {
	v, err := phpserial.Decode([]byte(value))
	if err != nil {
		return "", false
	}
	m, ok := v.(*phpserial.Map)
	if !ok {
		return "", false
	}
	if md, ok := m.Get("metadata"); ok {
		if mm, ok := md.(*phpserial.Map); ok {
			mm.Delete("shortcode")
		}
	}
	out, err := phpserial.Encode(m)
	if err != nil {
		return "", false
	}
	return string(out), true
}
