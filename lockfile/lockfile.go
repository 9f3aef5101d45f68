// Package lockfile implements .sitetext.lock — a record of the MD5 of every
// value last pushed to the remote table, per language. It lets an import
// send only the keys that are new or changed since the previous push.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/sitetext/locale"
	"github.com/minios-linux/sitetext/localefile"
)

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the .sitetext.lock file structure.
type LockFile struct {
	Version int `yaml:"version"`
	// Table is the remote table the checksums refer to. Pushing to a
	// different table starts from an empty record.
	Table  string                       `yaml:"table,omitempty"`
	Pushed map[string]map[string]string `yaml:"pushed"` // language -> key -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the lock file at path for table. A missing file, or one
// recorded for another table, yields an empty lock file.
func Load(path, table string) (*LockFile, error) {
	lf := &LockFile{
		Version: Version,
		Table:   table,
		Pushed:  make(map[string]map[string]string),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var onDisk LockFile
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if onDisk.Version > Version {
		return nil, fmt.Errorf("%s: unsupported lock file version %d", path, onDisk.Version)
	}
	if onDisk.Table == table && onDisk.Pushed != nil {
		lf.Pushed = onDisk.Pushed
	}
	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	return localefile.WriteFileAtomic(lf.path, data, 0644)
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a key/value pair. The key is part of
// the digest so a renamed key counts as changed.
func Hash(key, value string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(key+"\x00"+value)))
}

// UpdateKeys records the listed keys of m as pushed.
func (lf *LockFile) UpdateKeys(lang string, m *locale.Mapping, keys []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Pushed[lang] == nil {
		lf.Pushed[lang] = make(map[string]string)
	}
	for _, key := range keys {
		if v, ok := m.Get(key); ok {
			lf.Pushed[lang][key] = Hash(key, v)
		}
	}
}

// FilterChanged returns the entries of m that are new or changed since the
// last push, in m's order.
func (lf *LockFile) FilterChanged(lang string, m *locale.Mapping) *locale.Mapping {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Pushed[lang]
	changed := locale.New()
	m.Range(func(k, v string) bool {
		if existing == nil || existing[k] != Hash(k, v) {
			changed.Set(k, v)
		}
		return true
	})
	return changed
}

// Clean drops recorded keys that are no longer in currentKeys.
func (lf *LockFile) Clean(lang string, currentKeys []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Pushed[lang]
	if existing == nil {
		return
	}

	valid := make(map[string]bool, len(currentKeys))
	for _, k := range currentKeys {
		valid[k] = true
	}
	for k := range existing {
		if !valid[k] {
			delete(existing, k)
		}
	}
}

// Forget removes the given keys of lang, so they are pushed again next time.
func (lf *LockFile) Forget(lang string, keys []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	for _, k := range keys {
		delete(lf.Pushed[lang], k)
	}
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of languages and total keys in the lock file.
func (lf *LockFile) Stats() (languages, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	languages = len(lf.Pushed)
	for _, m := range lf.Pushed {
		keys += len(m)
	}
	return
}

// Languages returns the sorted recorded languages.
func (lf *LockFile) Languages() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	langs := make([]string, 0, len(lf.Pushed))
	for l := range lf.Pushed {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	languages, keys := lf.Stats()
	if languages == 0 {
		return "empty"
	}

	var parts []string
	for _, l := range lf.Languages() {
		parts = append(parts, fmt.Sprintf("%s: %d keys", l, len(lf.Pushed[l])))
	}
	return fmt.Sprintf("%d languages, %d keys (%s)", languages, keys, strings.Join(parts, ", "))
}
