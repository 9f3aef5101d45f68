// Package config — .sitetext.yaml configuration file support.
//
// The file is optional: without it every setting takes its default and the
// language list is detected from the locale files on disk.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/sitetext/localefile"
	"github.com/minios-linux/sitetext/remote"
	"github.com/minios-linux/sitetext/settings"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// FileName is the default config file name.
const FileName = ".sitetext.yaml"

// Defaults.
const (
	DefaultLocalesDir = "src/locales"
	DefaultMaster     = "en"
	DefaultEditorAddr = "127.0.0.1:3001"
	DefaultSQLitePath = ".sitetext/mirror.db"
	LockFileName      = ".sitetext.lock"
)

// Remote drivers.
const (
	DriverPostgREST = "postgrest"
	DriverSQLite    = "sqlite"
)

// File is the top-level .sitetext.yaml structure.
type File struct {
	// LocalesDir holds one module per language, relative to the project root.
	LocalesDir string `yaml:"locales_dir,omitempty"`
	// Extension of locale modules (default ".ts").
	Extension string `yaml:"extension,omitempty"`
	// Master is the authoritative language (default "en").
	Master string `yaml:"master,omitempty"`
	// Languages lists every managed language, master included.
	// Detected from LocalesDir when empty.
	Languages []string `yaml:"languages,omitempty"`
	Remote    Remote   `yaml:"remote,omitempty"`
	Editor    Editor   `yaml:"editor,omitempty"`

	// Root is the absolute project root.
	Root string `yaml:"-"`
	// Path is the config file that was read, empty when defaults are used.
	Path string `yaml:"-"`
}

// Remote configures the remote table.
type Remote struct {
	// Driver: "postgrest" (default) or "sqlite".
	Driver     string        `yaml:"driver,omitempty"`
	Table      string        `yaml:"table,omitempty"`
	BatchSize  int           `yaml:"batch_size,omitempty"`
	BatchDelay time.Duration `yaml:"batch_delay,omitempty"`
	// SQLitePath is the mirror database for the sqlite driver.
	SQLitePath string `yaml:"sqlite_path,omitempty"`
	// Profile selects the stored credentials (see 'sitetext auth').
	Profile string `yaml:"profile,omitempty"`

	// Credentials are never read from the file.
	URL string `yaml:"-"`
	Key string `yaml:"-"`
}

// Editor configures the editor API.
type Editor struct {
	Addr string `yaml:"addr,omitempty"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the config for the project at root. path overrides the default
// location (root/.sitetext.yaml); a missing default file yields defaults, a
// missing explicit file is an error. Credentials are taken from the
// environment; stored credentials are read later by Remote.LoadStored, only
// when a command needs the remote.
func Load(root, path string) (*File, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(absRoot, FileName)
	}

	f := &File{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		f.Path = path
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f.Root = absRoot
	f.applyDefaults()
	f.Remote.LoadCredentials(os.Getenv)

	if len(f.Languages) == 0 {
		f.Languages = f.detectLanguages()
	}
	if err := f.Validate(); err != nil {
		if f.Path != "" {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		return nil, err
	}
	return f, nil
}

func (f *File) applyDefaults() {
	if f.LocalesDir == "" {
		f.LocalesDir = DefaultLocalesDir
	}
	if f.Extension == "" {
		f.Extension = localefile.DefaultExt
	}
	if f.Master == "" {
		f.Master = DefaultMaster
	}
	if f.Editor.Addr == "" {
		f.Editor.Addr = DefaultEditorAddr
	}

	r := &f.Remote
	if r.Driver == "" {
		r.Driver = DriverPostgREST
	}
	if r.Table == "" {
		r.Table = remote.DefaultTable
	}
	if r.BatchSize <= 0 {
		r.BatchSize = remote.DefaultBatchSize
	}
	if r.BatchDelay == 0 {
		r.BatchDelay = remote.DefaultDelay
	}
	if r.SQLitePath == "" {
		r.SQLitePath = DefaultSQLitePath
	}
	if r.Profile == "" {
		r.Profile = settings.DefaultProfile
	}
}

// detectLanguages lists the locale files on disk. The master always comes
// first so a fresh project still validates.
func (f *File) detectLanguages() []string {
	found, _ := f.Store().Languages()
	langs := []string{f.Master}
	for _, lang := range found {
		if lang != f.Master {
			langs = append(langs, lang)
		}
	}
	return langs
}

// Validate checks language codes and remote settings that do not depend on
// credentials.
func (f *File) Validate() error {
	seen := make(map[string]bool, len(f.Languages))
	for _, lang := range f.Languages {
		if err := ValidateLanguage(lang); err != nil {
			return err
		}
		if seen[lang] {
			return fmt.Errorf("language %q listed twice", lang)
		}
		seen[lang] = true
	}
	if err := ValidateLanguage(f.Master); err != nil {
		return fmt.Errorf("master: %w", err)
	}
	if !seen[f.Master] {
		return fmt.Errorf("master language %q is not in languages %v", f.Master, f.Languages)
	}

	switch f.Remote.Driver {
	case DriverPostgREST, DriverSQLite:
	default:
		return fmt.Errorf("unknown remote driver %q (valid: %s, %s)", f.Remote.Driver, DriverPostgREST, DriverSQLite)
	}
	if f.Remote.BatchDelay < 0 {
		return fmt.Errorf("remote.batch_delay must not be negative")
	}
	return nil
}

// ValidateLanguage reports whether code is a well-formed BCP 47 tag.
func ValidateLanguage(code string) error {
	if code == "" {
		return errors.New("empty language code")
	}
	if _, err := language.Parse(code); err != nil {
		return fmt.Errorf("invalid language code %q: %w", code, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Resolved paths
// ---------------------------------------------------------------------------

// Abs resolves p against the project root.
func (f *File) Abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.Root, p)
}

// Store returns the locale file store.
func (f *File) Store() *localefile.Store {
	return localefile.NewStore(f.Abs(f.LocalesDir), f.Extension)
}

// LockPath returns the lock file path.
func (f *File) LockPath() string {
	return filepath.Join(f.Root, LockFileName)
}

// Targets is Select without the master.
func (f *File) Targets(requested []string) ([]string, error) {
	langs, err := f.Select(requested)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, lang := range langs {
		if lang != f.Master {
			out = append(out, lang)
		}
	}
	return out, nil
}

// HasLanguage reports whether lang is managed.
func (f *File) HasLanguage(lang string) bool {
	return slices.Contains(f.Languages, lang)
}

// Select narrows the managed languages to the requested ones, or returns
// them all when none are requested. Unknown languages are an error.
func (f *File) Select(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return slices.Clone(f.Languages), nil
	}
	for _, lang := range requested {
		if !f.HasLanguage(lang) {
			return nil, fmt.Errorf("language %q is not configured (have %v)", lang, f.Languages)
		}
	}
	return requested, nil
}
