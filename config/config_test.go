package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/minios-linux/sitetext/settings"
)

func clearRemoteEnv(t *testing.T) {
	t.Helper()
	for _, name := range append(append([]string{}, URLEnv...), KeyEnv...) {
		t.Setenv(name, "")
	}
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearRemoteEnv(t)
	dir := t.TempDir()
	locales := filepath.Join(dir, "src", "locales")
	if err := os.MkdirAll(locales, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for _, name := range []string{"de.ts", "en.ts", "index.ts.bak", "types.d.ts"} {
		if err := os.WriteFile(filepath.Join(locales, name), []byte("const x = {};\nexport default x;\n"), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	f, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if f.Path != "" {
		t.Fatalf("Path = %q, want empty", f.Path)
	}
	if f.Master != "en" || f.Extension != ".ts" || f.LocalesDir != DefaultLocalesDir {
		t.Fatalf("defaults = %+v", f)
	}
	if !reflect.DeepEqual(f.Languages, []string{"en", "de"}) {
		t.Fatalf("Languages = %v, want [en de]", f.Languages)
	}
	if f.Remote.Driver != DriverPostgREST || f.Remote.BatchSize != 50 || f.Remote.BatchDelay != 200*time.Millisecond {
		t.Fatalf("remote defaults = %+v", f.Remote)
	}
	if got := f.Store().Path("de"); got != filepath.Join(locales, "de.ts") {
		t.Fatalf("Store().Path(de) = %q", got)
	}
	if got, err := f.Targets(nil); err != nil || !reflect.DeepEqual(got, []string{"de"}) {
		t.Fatalf("Targets(nil) = %v, %v, want [de]", got, err)
	}
}

func TestLoadFreshProjectHasMasterOnly(t *testing.T) {
	clearRemoteEnv(t)
	f, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !reflect.DeepEqual(f.Languages, []string{"en"}) {
		t.Fatalf("Languages = %v, want [en]", f.Languages)
	}
}

func TestLoadFile(t *testing.T) {
	clearRemoteEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, `
locales_dir: web/i18n
extension: js
master: de
languages: [de, en, pt-BR]
remote:
  driver: sqlite
  table: texts
  batch_size: 10
  batch_delay: 1s
editor:
  addr: ":4000"
`)

	f, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if f.Path != filepath.Join(dir, FileName) {
		t.Fatalf("Path = %q", f.Path)
	}
	if got := f.Store().Path("en"); got != filepath.Join(dir, "web", "i18n", "en.js") {
		t.Fatalf("Store().Path(en) = %q", got)
	}
	if f.Remote.Driver != DriverSQLite || f.Remote.Table != "texts" || f.Remote.BatchSize != 10 || f.Remote.BatchDelay != time.Second {
		t.Fatalf("remote = %+v", f.Remote)
	}
	if got := f.Remote.SQLiteFile(f.Root); got != filepath.Join(dir, DefaultSQLitePath) {
		t.Fatalf("SQLiteFile() = %q", got)
	}
	if f.Editor.Addr != ":4000" {
		t.Fatalf("Editor.Addr = %q", f.Editor.Addr)
	}
	if got, err := f.Targets(nil); err != nil || !reflect.DeepEqual(got, []string{"en", "pt-BR"}) {
		t.Fatalf("Targets(nil) = %v, %v", got, err)
	}
	if got, err := f.Targets([]string{"de", "pt-BR"}); err != nil || !reflect.DeepEqual(got, []string{"pt-BR"}) {
		t.Fatalf("Targets(de, pt-BR) = %v, %v, want [pt-BR]", got, err)
	}
	if _, err := f.Targets([]string{"fr"}); err == nil {
		t.Fatal("Targets(fr) accepted an unconfigured language")
	}
}

func TestLoadValidation(t *testing.T) {
	clearRemoteEnv(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"master missing from languages", "master: en\nlanguages: [de, fr]\n", "master language"},
		{"invalid code", "languages: [en, \"e!n\"]\n", "invalid language code"},
		{"duplicate", "languages: [en, de, de]\n", "listed twice"},
		{"unknown driver", "remote:\n  driver: mongo\n", "unknown remote driver"},
		{"bad yaml", "languages: [en\n", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.body)
			_, err := Load(dir, "")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	clearRemoteEnv(t)
	dir := t.TempDir()
	if _, err := Load(dir, filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("Load() with missing explicit config succeeded")
	}
}

func TestRemoteCredentialsLookupOrder(t *testing.T) {
	clearRemoteEnv(t)
	t.Setenv("SUPABASE_URL", "https://x.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service")

	var r Remote
	r.LoadCredentials(os.Getenv)
	if r.URL != "https://x.supabase.co" || r.Key != "service" {
		t.Fatalf("credentials = %q %q", r.URL, r.Key)
	}

	t.Setenv("SITETEXT_REMOTE_URL", "https://own.example")
	t.Setenv("SITETEXT_REMOTE_KEY", "own")
	r.LoadCredentials(os.Getenv)
	if r.URL != "https://own.example" || r.Key != "own" {
		t.Fatalf("credentials = %q %q, want SITETEXT_* to win", r.URL, r.Key)
	}
}

func TestRemoteLoadStored(t *testing.T) {
	stored := map[string]*settings.Credential{
		"default": {URL: "https://stored.example", Key: "stored"},
	}
	get := func(profile string) (*settings.Credential, error) { return stored[profile], nil }

	r := Remote{Driver: DriverPostgREST, Profile: "default", Key: "env"}
	if err := r.LoadStored(get); err != nil {
		t.Fatalf("LoadStored() error: %v", err)
	}
	if r.URL != "https://stored.example" || r.Key != "env" {
		t.Fatalf("credentials = %q %q, want stored URL and env key", r.URL, r.Key)
	}

	r = Remote{Driver: DriverPostgREST, Profile: "staging"}
	if err := r.LoadStored(get); err != nil || r.URL != "" {
		t.Fatalf("unknown profile: URL = %q, err = %v", r.URL, err)
	}

	failing := func(string) (*settings.Credential, error) { return nil, errors.New("corrupt") }
	r = Remote{Driver: DriverSQLite}
	if err := r.LoadStored(failing); err != nil {
		t.Fatalf("sqlite driver consulted the store: %v", err)
	}
	r = Remote{Driver: DriverPostgREST}
	if err := r.LoadStored(failing); err == nil {
		t.Fatal("LoadStored() swallowed the store error")
	}
}

func TestLoadLeavesStoredCredentialsAlone(t *testing.T) {
	clearRemoteEnv(t)
	if err := settings.Set("prod", &settings.Credential{URL: "https://prod.example", Key: "k"}); err != nil {
		t.Fatalf("settings.Set: %v", err)
	}
	dir := t.TempDir()
	writeConfig(t, dir, "remote:\n  profile: prod\n")

	f, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if f.Remote.URL != "" || f.Remote.Key != "" {
		t.Fatalf("Load() read stored credentials: %+v", f.Remote)
	}

	if err := f.Remote.LoadStored(settings.Get); err != nil {
		t.Fatalf("LoadStored() error: %v", err)
	}
	if f.Remote.URL != "https://prod.example" || f.Remote.Key != "k" {
		t.Fatalf("remote = %+v", f.Remote)
	}
	if err := f.Remote.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestLoadIgnoresCorruptCredentialStore(t *testing.T) {
	clearRemoteEnv(t)
	path, err := settings.FilePath()
	if err != nil {
		t.Fatalf("FilePath: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if err := f.Remote.LoadStored(settings.Get); err == nil {
		t.Fatal("LoadStored() accepted a corrupt store")
	}
}

func TestRemoteValidate(t *testing.T) {
	r := Remote{Driver: DriverPostgREST, URL: "https://x"}
	err := r.Validate()
	if !errors.Is(err, ErrRemoteNotConfigured) {
		t.Fatalf("Validate() = %v, want ErrRemoteNotConfigured", err)
	}
	if !strings.Contains(err.Error(), "SUPABASE_ANON_KEY") || strings.Contains(err.Error(), "SUPABASE_URL") {
		t.Fatalf("Validate() message = %q", err)
	}

	r.Key = "k"
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	if err := (&Remote{Driver: DriverSQLite}).Validate(); err != nil {
		t.Fatalf("sqlite Validate() = %v, want nil", err)
	}
}

func TestSelect(t *testing.T) {
	f := &File{Master: "en", Languages: []string{"en", "de", "fr"}}
	got, err := f.Select(nil)
	if err != nil || !reflect.DeepEqual(got, []string{"en", "de", "fr"}) {
		t.Fatalf("Select(nil) = %v, %v", got, err)
	}
	if _, err := f.Select([]string{"es"}); err == nil {
		t.Fatal("Select([es]) succeeded for unknown language")
	}
}
