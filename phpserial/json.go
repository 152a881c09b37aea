package phpserial

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// FromJSON converts a JSON document into codec values, keeping object key
// order. Objects become *Map with string keys, arrays *Map with 0..n-1
// keys, integral numbers int64 and other numbers float64.
func FromJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := fromJSON(dec)
	if err != nil {
		return nil, fmt.Errorf("phpserial: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("phpserial: trailing JSON data")
	}
	return v, nil
}

func fromJSON(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMap()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := kt.(string)
				val, err := fromJSON(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, val)
			}
			_, err := dec.Token()
			return m, err
		case '[':
			m := NewMap()
			for i := 0; dec.More(); i++ {
				val, err := fromJSON(dec)
				if err != nil {
					return nil, err
				}
				m.Set(int64(i), val)
			}
			_, err := dec.Token()
			return m, err
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		if n, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return n, nil
		}
		return t.Float64()
	default:
		// string, bool, nil
		return t, nil
	}
}

// ToJSON renders a decoded value as JSON. List-shaped maps, including the
// empty array, become arrays; other maps become objects in key order.
func ToJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := toJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toJSON(buf *bytes.Buffer, v any) error {
	m, ok := v.(*Map)
	if !ok {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("phpserial: %w", err)
		}
		buf.Write(b)
		return nil
	}
	if m.IsList() {
		buf.WriteByte('[')
		for i, e := range m.Entries() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := toJSON(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}
	buf.WriteByte('{')
	for i, e := range m.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		var key string
		switch k := e.Key.(type) {
		case string:
			key = k
		case int64:
			key = strconv.FormatInt(k, 10)
		}
		kb, _ := json.Marshal(key)
		buf.Write(kb)
		buf.WriteByte(':')
		if err := toJSON(buf, e.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
