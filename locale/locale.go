// Package locale defines the ordered key/value mapping shared by every
// sitetext component, together with the key helpers (sections, validation).
//
// A translation key is a dot-delimited string such as "articles.title".
// Its first segment is the key's section.
package locale

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SectionSeparator delimits the segments of a translation key.
const SectionSeparator = "."

// SectionOf returns the part of key before the first separator, or the
// whole key when it has none.
func SectionOf(key string) string {
	if i := strings.Index(key, SectionSeparator); i >= 0 {
		return key[:i]
	}
	return key
}

// ValidateKey reports whether key can be stored in a locale file and in
// the remote table.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty translation key")
	}
	if strings.TrimSpace(key) != key {
		return fmt.Errorf("translation key %q has surrounding whitespace", key)
	}
	return nil
}

// Mapping is an ordered key -> text mapping for one language.
// The zero value is an empty mapping ready to use.
type Mapping struct {
	keys   []string
	values map[string]string
}

// New returns an empty mapping.
func New() *Mapping {
	return &Mapping{values: make(map[string]string)}
}

// FromPairs builds a mapping from alternating key, value arguments.
// It panics on an odd number of arguments; it is meant for literals.
func FromPairs(kv ...string) *Mapping {
	if len(kv)%2 != 0 {
		panic("locale.FromPairs: odd number of arguments")
	}
	m := New()
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order. The slice is a copy.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value for key.
func (m *Mapping) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. New keys are appended; existing keys keep
// their position.
func (m *Mapping) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key, reporting whether it was present.
func (m *Mapping) Delete(key string) bool {
	if m == nil {
		return false
	}
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Range calls fn for every entry in order until fn returns false.
func (m *Mapping) Range(fn func(key, value string) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy.
func (m *Mapping) Clone() *Mapping {
	out := New()
	m.Range(func(k, v string) bool {
		out.Set(k, v)
		return true
	})
	return out
}

// Equal reports whether both mappings hold the same entries in the same order.
func (m *Mapping) Equal(other *Mapping) bool {
	if m.Len() != other.Len() {
		return false
	}
	otherKeys := other.Keys()
	for i, k := range m.Keys() {
		if otherKeys[i] != k || other.values[k] != m.values[k] {
			return false
		}
	}
	return true
}

// SameOrder reports whether both mappings hold the same keys in the same
// order. Values are ignored.
func (m *Mapping) SameOrder(other *Mapping) bool {
	if m.Len() != other.Len() {
		return false
	}
	otherKeys := other.Keys()
	for i, k := range m.Keys() {
		if otherKeys[i] != k {
			return false
		}
	}
	return true
}

// Empty counts keys whose value is the empty string.
func (m *Mapping) Empty() int {
	n := 0
	m.Range(func(_, v string) bool {
		if v == "" {
			n++
		}
		return true
	})
	return n
}

// MarshalJSON encodes the mapping as a JSON object in key order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	first := true
	var err error
	m.Range(func(k, v string) bool {
		if !first {
			b.WriteByte(',')
		}
		first = false
		if err = writeJSONString(&b, k); err != nil {
			return false
		}
		b.WriteByte(':')
		err = writeJSONString(&b, v)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func writeJSONString(b *bytes.Buffer, s string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	b.Write(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}))
	return nil
}

// UnmarshalJSON decodes a flat JSON object of strings, keeping document order.
// Non-string values and duplicate keys are errors.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	parsed, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

// DecodeJSON parses a flat JSON object of strings preserving key order.
// Every key must pass ValidateKey.
func DecodeJSON(data []byte) (*Mapping, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected {, got %v", t)
	}

	m := New()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %T", kt)
		}
		if err := ValidateKey(key); err != nil {
			return nil, err
		}

		vt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		value, ok := vt.(string)
		if !ok {
			return nil, &ValueError{Key: key, Got: describeToken(vt)}
		}
		if m.Has(key) {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		m.Set(key, value)
	}

	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after object")
	}
	return m, nil
}

// ValueError reports a non-string value in a locale mapping.
type ValueError struct {
	Key string
	Got string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("value for key %q must be a string, got %s", e.Key, e.Got)
}

func describeToken(t json.Token) string {
	switch v := t.(type) {
	case json.Delim:
		if v == '{' {
			return "object"
		}
		return "array"
	case bool:
		return "boolean " + strconv.FormatBool(v)
	case float64:
		return "number"
	case json.Number:
		return "number"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", t)
}
