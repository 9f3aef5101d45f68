package lockfile

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/minios-linux/sitetext/locale"
)

func record(lf *LockFile, lang string, kv ...string) {
	m := locale.FromPairs(kv...)
	lf.UpdateKeys(lang, m, m.Keys())
}

func changed(lf *LockFile, lang, key, value string) bool {
	return lf.FilterChanged(lang, locale.FromPairs(key, value)).Len() == 1
}

func TestHashIncludesKey(t *testing.T) {
	if Hash("a", "v") != Hash("a", "v") {
		t.Error("Hash not deterministic")
	}
	if Hash("a", "v") == Hash("b", "v") {
		t.Error("renamed key hashes equal")
	}
	if Hash("a", "bc") == Hash("ab", "c") {
		t.Error("key/value boundary not part of the hash")
	}
}

func TestLoadNonExistent(t *testing.T) {
	lf, err := Load(filepath.Join(t.TempDir(), ".sitetext.lock"), "website_texts")
	if err != nil {
		t.Fatalf("Load returned error for non-existent file: %v", err)
	}
	if lf.Version != Version {
		t.Errorf("Version = %d, want %d", lf.Version, Version)
	}
	if len(lf.Pushed) != 0 {
		t.Errorf("Pushed not empty: %v", lf.Pushed)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sitetext.lock")

	lf, err := Load(path, "website_texts")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	record(lf, "en", "nav.home", "Home", "nav.about", "About")
	record(lf, "de", "nav.home", "Start")
	if err := lf.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("lock file not created: %v", err)
	}

	lf2, err := Load(path, "website_texts")
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	languages, keys := lf2.Stats()
	if languages != 2 || keys != 3 {
		t.Errorf("Stats() = %d, %d, want 2, 3", languages, keys)
	}
	if changed(lf2, "de", "nav.home", "Start") {
		t.Error("reloaded entry reported as changed")
	}

	other, err := Load(path, "staging_texts")
	if err != nil {
		t.Fatalf("Load other table: %v", err)
	}
	if n, _ := other.Stats(); n != 0 {
		t.Errorf("other table inherited %d languages", n)
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sitetext.lock")
	if err := os.WriteFile(path, []byte("version: 99\npushed: {}\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path, ""); err == nil {
		t.Fatal("Load() accepted a newer version")
	}
}

func TestFilterChangedDetectsNewAndModified(t *testing.T) {
	lf, _ := Load(filepath.Join(t.TempDir(), "x.lock"), "")

	if !changed(lf, "en", "a", "1") {
		t.Error("new entry should be changed")
	}
	record(lf, "en", "a", "1")
	if changed(lf, "en", "a", "1") {
		t.Error("unchanged entry should not be changed")
	}
	if !changed(lf, "en", "a", "2") {
		t.Error("modified entry should be changed")
	}
	if !changed(lf, "de", "a", "1") {
		t.Error("different language should be changed")
	}
}

func TestFilterChangedKeepsOrder(t *testing.T) {
	lf, _ := Load(filepath.Join(t.TempDir(), "x.lock"), "")
	record(lf, "en", "b", "2", "c", "3")

	m := locale.FromPairs("z", "new", "b", "2", "c", "changed", "a", "also new")
	changed := lf.FilterChanged("en", m)

	if got, want := changed.Keys(), []string{"z", "c", "a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("FilterChanged() keys = %v, want %v", got, want)
	}
}

func TestUpdateKeysOnlyRecordsListedKeys(t *testing.T) {
	lf, _ := Load(filepath.Join(t.TempDir(), "x.lock"), "")
	m := locale.FromPairs("a", "1", "b", "2", "c", "3")

	lf.UpdateKeys("en", m, []string{"a", "c", "missing"})

	if got := lf.FilterChanged("en", m).Keys(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("after UpdateKeys changed = %v, want [b]", got)
	}
}

func TestCleanAndForget(t *testing.T) {
	lf, _ := Load(filepath.Join(t.TempDir(), "x.lock"), "")
	record(lf, "en", "a", "a", "b", "b", "c", "c")

	lf.Clean("en", []string{"a", "b"})
	if _, keys := lf.Stats(); keys != 2 {
		t.Fatalf("keys after Clean = %d, want 2", keys)
	}

	lf.Forget("en", []string{"a"})
	if !changed(lf, "en", "a", "a") {
		t.Fatal("forgotten key should be changed")
	}

	lf.Clean("fr", nil)
	if got := lf.Languages(); !reflect.DeepEqual(got, []string{"en"}) {
		t.Fatalf("Languages() = %v, want [en]", got)
	}
}

func TestSummary(t *testing.T) {
	lf, _ := Load(filepath.Join(t.TempDir(), "x.lock"), "")
	if got := lf.Summary(); got != "empty" {
		t.Fatalf("Summary() = %q, want empty", got)
	}
	record(lf, "de", "a", "1")
	record(lf, "en", "a", "1", "b", "2")

	got := lf.Summary()
	if !strings.HasPrefix(got, "2 languages, 3 keys") || !strings.Contains(got, "de: 1 keys, en: 2 keys") {
		t.Fatalf("Summary() = %q", got)
	}
}
