package localefile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/sitetext/locale"
)

// DefaultExt is the default locale module extension.
const DefaultExt = ".ts"

// Store maps language codes to locale modules in a directory:
// <Dir>/<lang><Ext>.
type Store struct {
	Dir string
	Ext string
}

// NewStore returns a store rooted at dir. An empty ext selects DefaultExt.
func NewStore(dir, ext string) *Store {
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Store{Dir: dir, Ext: ext}
}

// Path returns the locale module path for lang.
func (s *Store) Path(lang string) string {
	return filepath.Join(s.Dir, lang+s.Ext)
}

// Load parses the locale module for lang. A missing file yields an error
// matching ErrNotFound; malformed content yields a *ParseError.
func (s *Store) Load(lang string) (*File, error) {
	path := s.Path(lang)
	f, err := ParseFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return f, nil
}

// LoadMapping is Load returning only the translations.
func (s *Store) LoadMapping(lang string) (*locale.Mapping, error) {
	f, err := s.Load(lang)
	if err != nil {
		return nil, err
	}
	return f.Translations, nil
}

// Save replaces the locale module for lang with translations. The
// declaration and export of an existing, parseable file are kept; otherwise
// the default layout is used.
func (s *Store) Save(lang string, translations *locale.Mapping) error {
	path := s.Path(lang)

	f := NewFile(lang, translations)
	if existing, err := ParseFile(path); err == nil {
		existing.Translations = translations
		f = existing
	}

	if err := f.WriteFile(path); err != nil {
		return fmt.Errorf("saving %s: %w", lang, err)
	}
	return nil
}

// Languages lists the language codes that have a locale module, sorted.
func (s *Store) Languages() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Dir, err)
	}

	var langs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, s.Ext) {
			continue
		}
		// Skip declaration files such as en.d.ts.
		lang := strings.TrimSuffix(name, s.Ext)
		if lang == "" || strings.Contains(lang, ".") {
			continue
		}
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs, nil
}
