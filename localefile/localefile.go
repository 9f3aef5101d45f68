// Package localefile implements reading and writing of the website's
// locale modules.
//
// The expected file format is a named object literal followed by an export
// of that name:
//
//	const de = {
//	  "articles.title": "Artikel",
//	  "nav.home": "Startseite"
//	};
//
//	export default de;
//
// Parsing never evaluates the file. The literal is canonicalized to JSON
// (quotes normalized, comments and trailing commas dropped) and decoded with
// a strict ordered decoder. Every value must be a string literal; numbers,
// booleans, nested objects and the like are rejected with a *ParseError.
package localefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/minios-linux/sitetext/locale"
)

// ErrNotFound is returned when a language has no locale file.
var ErrNotFound = errors.New("locale file not found")

// ParseError describes a locale file that cannot be interpreted.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteByte(':')
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "%d:", e.Line)
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// File is a parsed locale module.
type File struct {
	// Name is the identifier of the declared object.
	Name string
	// Translations holds the entries in file order.
	Translations *locale.Mapping

	// prefix is the verbatim source up to the opening brace, suffix the
	// verbatim source after the closing brace.
	prefix string
	suffix string
}

// NewFile returns a file for lang using the default declaration layout.
func NewFile(lang string, translations *locale.Mapping) *File {
	name := Identifier(lang)
	if translations == nil {
		translations = locale.New()
	}
	return &File{
		Name:         name,
		Translations: translations,
		prefix:       "const " + name + " = ",
		suffix:       ";\n\nexport default " + name + ";\n",
	}
}

// ParseFile reads and parses a locale module.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return f, nil
}

// Parse parses locale module source.
func Parse(data []byte) (*File, error) {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	s := &scanner{src: data}

	name, exported, err := s.declaration()
	if err != nil {
		return nil, s.fail(err)
	}
	open := s.pos

	canonical, err := s.object()
	if err != nil {
		return nil, s.fail(err)
	}
	closeAt := s.pos

	if err := s.trailer(name, exported); err != nil {
		return nil, s.fail(err)
	}

	translations, err := locale.DecodeJSON(canonical)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	return &File{
		Name:         name,
		Translations: translations,
		prefix:       string(data[:open]),
		suffix:       string(data[closeAt:]),
	}, nil
}

// Marshal renders the file: the original declaration, the object literal
// with two-space indentation in key order, and the original export.
func (f *File) Marshal() ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(f.prefix)

	keys := f.Translations.Keys()
	if len(keys) == 0 {
		b.WriteString("{}")
	} else {
		b.WriteString("{\n")
		for i, k := range keys {
			v, _ := f.Translations.Get(k)
			b.WriteString("  ")
			if err := writeString(&b, k); err != nil {
				return nil, err
			}
			b.WriteString(": ")
			if err := writeString(&b, v); err != nil {
				return nil, err
			}
			if i < len(keys)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteByte('}')
	}

	b.WriteString(f.suffix)
	return b.Bytes(), nil
}

// WriteFile writes the file to path atomically.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, 0644)
}

// writeString writes s as a double-quoted JSON string, which is also a
// valid JavaScript string literal.
func writeString(b *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	b.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

// WriteFileAtomic replaces path with data through a synced temporary file
// in the same directory, creating the directory when needed. Readers never
// observe a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Identifier derives a declaration name from a language code:
// "de" -> "de", "pt-BR" -> "ptBR", "zh-Hant-TW" -> "zhHantTW".
func Identifier(lang string) string {
	var b strings.Builder
	upper := false
	for _, r := range lang {
		if r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			if upper {
				r = unicode.ToUpper(r)
				upper = false
			}
			b.WriteRune(r)
			continue
		}
		upper = b.Len() > 0
	}
	name := b.String()
	if name == "" {
		return "translations"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "_" + name
	}
	return name
}
