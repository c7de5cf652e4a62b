package frontmatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Map is an insertion-ordered string-keyed property mapping. Keys keep the
// position they had in the source file; keys added later go to the end.
// A nil *Map behaves as an empty mapping for reads.
type Map struct {
	om *orderedmap.OrderedMap[string, Value]
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{om: orderedmap.New[string, Value]()}
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil || m.om == nil {
		return 0
	}
	return m.om.Len()
}

// Get returns the value for key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil || m.om == nil {
		return Value{}, false
	}
	return m.om.Get(key)
}

// Set stores key. An existing key keeps its position; a new key is appended.
func (m *Map) Set(key string, v Value) {
	if m.om == nil {
		m.om = orderedmap.New[string, Value]()
	}
	m.om.Set(key, v)
}

// Delete removes key if present. Removing an absent key is a no-op.
func (m *Map) Delete(key string) {
	if m == nil || m.om == nil {
		return
	}
	m.om.Delete(key)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m.Len() == 0 {
		return nil
	}
	out := make([]string, 0, m.om.Len())
	for p := m.om.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

// Each calls fn for every key/value pair in insertion order.
func (m *Map) Each(fn func(key string, v Value)) {
	if m == nil || m.om == nil {
		return
	}
	for p := m.om.Oldest(); p != nil; p = p.Next() {
		fn(p.Key, p.Value)
	}
}

// Clone returns an independent copy preserving order.
func (m *Map) Clone() *Map {
	out := NewMap()
	m.Each(func(k string, v Value) { out.Set(k, v) })
	return out
}

// Equal reports whether two maps hold the same keys in the same order with
// JSON-equal values.
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	a, errA := json.Marshal(m)
	b, errB := json.Marshal(other)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// MarshalJSON renders the mapping as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m.Len() == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	var encErr error
	m.Each(func(k string, v Value) {
		if encErr != nil {
			return
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(k)
		if err != nil {
			encErr = err
			return
		}
		vb, err := json.Marshal(v)
		if err != nil {
			encErr = err
			return
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	})
	if encErr != nil {
		return nil, encErr
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object via the token stream so that key
// order is preserved (encoding/json maps would lose it).
func (m *Map) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		m.om = orderedmap.New[string, Value]()
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("frontmatter: expected JSON object, got %v", tok)
	}

	m.om = orderedmap.New[string, Value]()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("frontmatter: non-string key %v", keyTok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		v, err := FromGo(raw)
		if err != nil {
			return fmt.Errorf("frontmatter: key %q: %w", key, err)
		}
		m.om.Set(key, v)
	}
	_, err = dec.Token() // consume closing brace
	return err
}

// FromGoMap converts a plain Go map into a Map. Go map iteration order is
// unspecified, so keys are inserted in sorted order for determinism;
// callers that care about order should build a Map directly or decode
// JSON through UnmarshalJSON.
func FromGoMap(src map[string]any) (*Map, error) {
	out := NewMap()
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := FromGo(src[k])
		if err != nil {
			return nil, fmt.Errorf("frontmatter: key %q: %w", k, err)
		}
		out.Set(k, v)
	}
	return out, nil
}
