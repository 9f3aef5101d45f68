// Package editor exposes the locale files to an external editing UI.
//
// Service is a thin pass-through over the locale store: it adds no
// validation beyond what the store itself performs.
package editor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/minios-linux/sitetext/langmeta"
	"github.com/minios-linux/sitetext/locale"
	"github.com/minios-linux/sitetext/localefile"
)

// ErrNotFound is returned for a language that is not configured or has no
// locale file.
var ErrNotFound = errors.New("language not found")

// Store is the locale storage the service reads and writes.
type Store interface {
	LoadMapping(lang string) (*locale.Mapping, error)
	Save(lang string, translations *locale.Mapping) error
}

// Service reads and writes the mapping of one language at a time.
type Service struct {
	Store Store
	// Codes are the configured languages, master first.
	Codes []string
}

// Languages lists the configured languages with display names.
func (s *Service) Languages() []langmeta.Language {
	return langmeta.ResolveAll(s.Codes)
}

// GetTranslations loads the mapping of lang.
func (s *Service) GetTranslations(lang string) (*locale.Mapping, error) {
	if !slices.Contains(s.Codes, lang) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, lang)
	}
	m, err := s.Store.LoadMapping(lang)
	if errors.Is(err, localefile.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, lang)
	}
	return m, err
}

// SetTranslations replaces the mapping of lang. Write errors are returned
// unchanged.
func (s *Service) SetTranslations(lang string, m *locale.Mapping) error {
	if !slices.Contains(s.Codes, lang) {
		return fmt.Errorf("%w: %s", ErrNotFound, lang)
	}
	return s.Store.Save(lang, m)
}
