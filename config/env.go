package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minios-linux/sitetext/settings"
)

// ErrRemoteNotConfigured means the remote credentials are missing.
var ErrRemoteNotConfigured = errors.New("remote not configured")

// Environment variables, in lookup order.
var (
	URLEnv = []string{"SITETEXT_REMOTE_URL", "SUPABASE_URL"}
	KeyEnv = []string{"SITETEXT_REMOTE_KEY", "SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_ANON_KEY"}
)

// LoadCredentials fills URL and Key from the first non-empty variable.
func (r *Remote) LoadCredentials(getenv func(string) string) {
	r.URL = firstEnv(getenv, URLEnv)
	r.Key = firstEnv(getenv, KeyEnv)
}

// LoadStored fills the URL and key the environment left empty from the
// stored credentials of Profile. Only the postgrest driver consults them.
func (r *Remote) LoadStored(get func(profile string) (*settings.Credential, error)) error {
	if r.Driver != DriverPostgREST || (r.URL != "" && r.Key != "") {
		return nil
	}
	c, err := get(r.Profile)
	if err != nil {
		return fmt.Errorf("loading credentials for profile %q: %w", r.Profile, err)
	}
	if c == nil {
		return nil
	}
	if r.URL == "" {
		r.URL = c.URL
	}
	if r.Key == "" {
		r.Key = c.Key
	}
	return nil
}

func firstEnv(getenv func(string) string, names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks that the driver can connect. The postgrest driver needs
// both URL and key.
func (r *Remote) Validate() error {
	if r.Driver != DriverPostgREST {
		return nil
	}
	var missing []string
	if r.URL == "" {
		missing = append(missing, strings.Join(URLEnv, " or "))
	}
	if r.Key == "" {
		missing = append(missing, strings.Join(KeyEnv, " or "))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s, or run 'sitetext auth login'", ErrRemoteNotConfigured, strings.Join(missing, " and "))
	}
	return nil
}

// SQLiteFile resolves the mirror database path against root.
func (r *Remote) SQLiteFile(root string) string {
	if filepath.IsAbs(r.SQLitePath) {
		return r.SQLitePath
	}
	return filepath.Join(root, r.SQLitePath)
}
