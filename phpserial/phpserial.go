// Package phpserial encodes and decodes PHP's serialize() format, the
// native value format of WordPress post meta.
//
// Grammar:
//
//	value  = null | bool | int | float | string | array
//	null   = "N;"
//	bool   = "b:" ("0" | "1") ";"
//	int    = "i:" [-]digits ";"
//	float  = "d:" number ";"
//	string = "s:" bytelen ":" '"' bytes '"' ";"
//	array  = "a:" count ":{" (key value){count} "}"
//	key    = int | string
//
// Arrays are ordered; Map keeps insertion order on both sides of the codec.
package phpserial

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Entry is one key/value pair of a PHP array. Key is a string or an int64.
type Entry struct {
	Key   any
	Value any
}

// Map is an ordered PHP array.
type Map struct {
	entries []Entry
	index   map[any]int
}

func NewMap() *Map {
	return &Map{index: map[any]int{}}
}

func normKey(k any) any {
	switch t := k.(type) {
	case int:
		return int64(t)
	case int32:
		return int64(t)
	}
	return k
}

// Set adds or replaces key. Replacing keeps the original position.
func (m *Map) Set(key any, value any) {
	key = normKey(key)
	if m.index == nil {
		m.index = map[any]int{}
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: value})
}

func (m *Map) Get(key any) (any, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[normKey(key)]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Delete removes key, keeping the order of the remaining entries.
func (m *Map) Delete(key any) {
	key = normKey(key)
	i, ok := m.index[key]
	if !ok {
		return
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, key)
	for j := i; j < len(m.entries); j++ {
		m.index[m.entries[j].Key] = j
	}
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns the pairs in order.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	return append([]Entry(nil), m.entries...)
}

// Keys returns the keys in order.
func (m *Map) Keys() []any {
	out := make([]any, 0, m.Len())
	for _, e := range m.Entries() {
		out = append(out, e.Key)
	}
	return out
}

// IsList reports whether the keys are exactly 0..n-1 in order.
func (m *Map) IsList() bool {
	for i, e := range m.Entries() {
		k, ok := e.Key.(int64)
		if !ok || k != int64(i) {
			return false
		}
	}
	return true
}

// Encode serialises v. Supported values are nil, bool, the integer types,
// float32/64, string, *Map, []any, []string and map[string]any (keys sorted).
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("N;")
	case bool:
		if t {
			buf.WriteString("b:1;")
		} else {
			buf.WriteString("b:0;")
		}
	case int:
		writeInt(buf, int64(t))
	case int32:
		writeInt(buf, int64(t))
	case int64:
		writeInt(buf, t)
	case uint:
		writeInt(buf, int64(t))
	case float32:
		writeFloat(buf, float64(t))
	case float64:
		writeFloat(buf, t)
	case string:
		writeString(buf, t)
	case *Map:
		fmt.Fprintf(buf, "a:%d:{", t.Len())
		for _, e := range t.Entries() {
			if err := encodeKey(buf, e.Key); err != nil {
				return err
			}
			if err := encode(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		fmt.Fprintf(buf, "a:%d:{", len(t))
		for i, item := range t {
			writeInt(buf, int64(i))
			if err := encode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []string:
		fmt.Fprintf(buf, "a:%d:{", len(t))
		for i, item := range t {
			writeInt(buf, int64(i))
			writeString(buf, item)
		}
		buf.WriteByte('}')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(buf, "a:%d:{", len(keys))
		for _, k := range keys {
			writeString(buf, k)
			if err := encode(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("phpserial: unsupported type %T", v)
	}
	return nil
}

func encodeKey(buf *bytes.Buffer, k any) error {
	switch t := k.(type) {
	case int64:
		writeInt(buf, t)
	case int:
		writeInt(buf, int64(t))
	case string:
		writeString(buf, t)
	default:
		return fmt.Errorf("phpserial: unsupported key type %T", k)
	}
	return nil
}

func writeInt(buf *bytes.Buffer, n int64) {
	buf.WriteString("i:")
	buf.WriteString(strconv.FormatInt(n, 10))
	buf.WriteByte(';')
}

func writeFloat(buf *bytes.Buffer, f float64) {
	buf.WriteString("d:")
	switch {
	case math.IsNaN(f):
		buf.WriteString("NAN")
	case math.IsInf(f, 1):
		buf.WriteString("INF")
	case math.IsInf(f, -1):
		buf.WriteString("-INF")
	default:
		buf.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	buf.WriteByte(';')
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteString("s:")
	buf.WriteString(strconv.Itoa(len(s)))
	buf.WriteString(`:"`)
	buf.WriteString(s)
	buf.WriteString(`";`)
}
