// Package remote mirrors locale mappings into a hosted key/value table.
//
// Rows are (key, language, value, section) tuples, unique on
// (key, language). The local locale files are the source of truth: the
// table is pushed to in batches and can be queried to detect drift, but
// drift is never repaired automatically.
package remote

import (
	"context"
	"sort"
	"strings"

	"github.com/minios-linux/sitetext/locale"
)

// DefaultTable is the default remote table name.
const DefaultTable = "website_texts"

// Record is one row of the remote table.
type Record struct {
	Key      string `json:"key" yaml:"key"`
	Language string `json:"language" yaml:"language"`
	Value    string `json:"value" yaml:"value"`
	Section  string `json:"section" yaml:"section"`
}

// NewRecord builds the row for key in lang, deriving its section.
func NewRecord(lang, key, value string) Record {
	return Record{Key: key, Language: lang, Value: value, Section: locale.SectionOf(key)}
}

// Records flattens a mapping into rows for lang, in mapping order.
func Records(lang string, m *locale.Mapping) []Record {
	out := make([]Record, 0, m.Len())
	m.Range(func(k, v string) bool {
		out = append(out, NewRecord(lang, k, v))
		return true
	})
	return out
}

// Filter restricts a Select. Empty fields match everything.
type Filter struct {
	// Key matches the key exactly.
	Key string
	// Language matches the language exactly.
	Language string
	// Prefix matches keys by prefix. A prefix without a dot selects a whole
	// section ("articles" matches "articles.title" but not "articlesX").
	Prefix string
}

// Match reports whether r passes the filter.
func (f Filter) Match(r Record) bool {
	if f.Key != "" && r.Key != f.Key {
		return false
	}
	if f.Language != "" && r.Language != f.Language {
		return false
	}
	if f.Prefix != "" {
		if f.IsSection() {
			return r.Section == f.Prefix
		}
		return strings.HasPrefix(r.Key, f.Prefix)
	}
	return true
}

// IsSection reports whether Prefix names a whole section.
func (f Filter) IsSection() bool {
	return f.Prefix != "" && !strings.Contains(f.Prefix, locale.SectionSeparator)
}

// Table is the remote key/value store.
type Table interface {
	// Upsert inserts the records, replacing rows with the same
	// (key, language).
	Upsert(ctx context.Context, records []Record) error
	// Select returns the rows matching f.
	Select(ctx context.Context, f Filter) ([]Record, error)
	// Delete removes the rows of lang with the given keys.
	Delete(ctx context.Context, lang string, keys []string) error
}

// SortRecords orders records by key, then language.
func SortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Key != records[j].Key {
			return records[i].Key < records[j].Key
		}
		return records[i].Language < records[j].Language
	})
}
