// Package settings stores remote table credentials for sitetext users.
//
// Credentials live in the XDG data directory:
//
//	$XDG_DATA_HOME/sitetext/credentials.json  (default: ~/.local/share/sitetext/)
//
// The file is a JSON object keyed by profile name:
//
//	{"default": {"url": "https://x.supabase.co", "key": "..."}}
//
// File permissions are 0600 (owner read/write only).
//
// Lookup order for the remote URL and key:
//  1. SITETEXT_REMOTE_URL / SITETEXT_REMOTE_KEY and the SUPABASE_* variables
//  2. This credential store, under the profile named in .sitetext.yaml
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	dataDirName = "sitetext"
	fileName    = "credentials.json"

	// DefaultProfile is used when the config names none.
	DefaultProfile = "default"
)

// Credential is the URL and API key of one remote.
type Credential struct {
	URL string `json:"url,omitempty"`
	Key string `json:"key,omitempty"`
}

// Store holds all credentials, keyed by profile.
type Store map[string]*Credential

// Profiles returns the profile names, sorted.
func (s Store) Profiles() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// DataDir returns the sitetext data directory.
// Respects $XDG_DATA_HOME (falls back to ~/.local/share).
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

// FilePath returns the path of the credentials file.
func FilePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store. A missing file is an empty store; a
// corrupt one is an error so it is never silently overwritten.
func Load() (Store, error) {
	path, err := FilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return make(Store), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if store == nil {
		store = make(Store)
	}
	return store, nil
}

// Save writes the credential store with 0600 permissions.
func Save(store Store) error {
	path, err := FilePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Get / Set / Remove
// ---------------------------------------------------------------------------

// Get returns the credential of profile, or nil when none is stored.
func Get(profile string) (*Credential, error) {
	store, err := Load()
	if err != nil {
		return nil, err
	}
	return store[profile], nil
}

// Set stores the credential of profile, replacing any previous one.
func Set(profile string, c *Credential) error {
	store, err := Load()
	if err != nil {
		return err
	}
	store[profile] = c
	return Save(store)
}

// Remove deletes the credential of profile. Removing a missing profile is
// not an error.
func Remove(profile string) error {
	store, err := Load()
	if err != nil {
		return err
	}
	if _, ok := store[profile]; !ok {
		return nil
	}
	delete(store, profile)
	return Save(store)
}

// RemoveAll deletes the credentials file.
func RemoveAll() error {
	path, err := FilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credentials file: %w", err)
	}
	return nil
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
