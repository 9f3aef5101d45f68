// Package snapshot exports every locale mapping of a project as a single
// bundle document and writes it to a local file or an object store.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/sitetext/locale"
)

// Format is a bundle encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// ParseFormat accepts json, yaml/yml or toml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "toml":
		return TOML, nil
	}
	return "", fmt.Errorf("unknown snapshot format %q (valid: json, yaml, toml)", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case YAML:
		return "application/yaml"
	case TOML:
		return "application/toml"
	default:
		return "application/json"
	}
}

// Bundle holds the mappings of every language.
type Bundle struct {
	Master string
	// Order lists the languages as they are encoded.
	Order     []string
	Languages map[string]*locale.Mapping
}

// Loader loads one language.
type Loader interface {
	LoadMapping(lang string) (*locale.Mapping, error)
}

// Build loads langs into a bundle. Any load failure aborts.
func Build(store Loader, master string, langs []string) (*Bundle, error) {
	b := &Bundle{Master: master, Languages: make(map[string]*locale.Mapping, len(langs))}
	for _, lang := range langs {
		m, err := store.LoadMapping(lang)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", lang, err)
		}
		b.Order = append(b.Order, lang)
		b.Languages[lang] = m
	}
	return b, nil
}

// Encode renders the bundle. JSON and YAML keep language and key order;
// TOML tables are written in sorted key order.
func (b *Bundle) Encode(f Format) ([]byte, error) {
	switch f {
	case JSON:
		return b.encodeJSON()
	case YAML:
		return b.encodeYAML()
	case TOML:
		return b.encodeTOML()
	}
	return nil, fmt.Errorf("unknown snapshot format %q", f)
}

func (b *Bundle) encodeJSON() ([]byte, error) {
	var buf bytes.Buffer
	master, _ := json.Marshal(b.Master)
	buf.WriteString(`{"master":`)
	buf.Write(master)
	buf.WriteString(`,"languages":{`)
	for i, lang := range b.Order {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(lang)
		buf.Write(name)
		buf.WriteByte(':')
		data, err := b.Languages[lang].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", lang, err)
		}
		buf.Write(data)
	}
	buf.WriteString("}}")

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func (b *Bundle) encodeYAML() ([]byte, error) {
	langs := &yaml.Node{Kind: yaml.MappingNode}
	for _, lang := range b.Order {
		entries := &yaml.Node{Kind: yaml.MappingNode}
		b.Languages[lang].Range(func(k, v string) bool {
			entries.Content = append(entries.Content, scalar(k), scalar(v))
			return true
		})
		langs.Content = append(langs.Content, scalar(lang), entries)
	}
	root := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		scalar("master"), scalar(b.Master),
		scalar("languages"), langs,
	}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *Bundle) encodeTOML() ([]byte, error) {
	langs := make(map[string]map[string]string, len(b.Order))
	for _, lang := range b.Order {
		entries := make(map[string]string, b.Languages[lang].Len())
		b.Languages[lang].Range(func(k, v string) bool {
			entries[k] = v
			return true
		})
		langs[lang] = entries
	}
	doc := struct {
		Master    string                       `toml:"master"`
		Languages map[string]map[string]string `toml:"languages"`
	}{b.Master, langs}
	return toml.Marshal(doc)
}

// FormatFor picks the format: the explicit one when given, else the
// destination's extension, else JSON.
func FormatFor(explicit string, d Destination) (Format, error) {
	if explicit != "" {
		return ParseFormat(explicit)
	}
	if f, err := ParseFormat(d.Ext()); err == nil {
		return f, nil
	}
	return JSON, nil
}
