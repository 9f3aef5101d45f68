package editor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/minios-linux/sitetext/locale"
	"github.com/minios-linux/sitetext/localefile"
)

func newService(t *testing.T) (*Service, *localefile.Store) {
	t.Helper()
	store := localefile.NewStore(t.TempDir(), ".ts")
	require.NoError(t, store.Save("en", locale.FromPairs("nav.home", "Home", "nav.about", "About")))
	require.NoError(t, store.Save("de", locale.FromPairs("nav.home", "Start", "nav.about", "Über")))
	return &Service{Store: store, Codes: []string{"en", "de", "fr"}}, store
}

func TestServiceGetTranslations(t *testing.T) {
	svc, _ := newService(t)

	m, err := svc.GetTranslations("de")
	require.NoError(t, err)
	assert.Equal(t, []string{"nav.home", "nav.about"}, m.Keys())

	_, err = svc.GetTranslations("fr")
	assert.ErrorIs(t, err, ErrNotFound, "configured but no file")

	_, err = svc.GetTranslations("es")
	assert.ErrorIs(t, err, ErrNotFound, "not configured")
}

func TestServiceSetTranslations(t *testing.T) {
	svc, store := newService(t)

	require.NoError(t, svc.SetTranslations("fr", locale.FromPairs("nav.home", "Accueil")))
	m, err := store.LoadMapping("fr")
	require.NoError(t, err)
	assert.Equal(t, []string{"nav.home"}, m.Keys())

	assert.ErrorIs(t, svc.SetTranslations("es", locale.New()), ErrNotFound)
}

type brokenStore struct{}

func (brokenStore) LoadMapping(string) (*locale.Mapping, error) { return locale.New(), nil }
func (brokenStore) Save(string, *locale.Mapping) error          { return errors.New("read-only file system") }

func TestServiceSetTranslationsReturnsWriteError(t *testing.T) {
	svc := &Service{Store: brokenStore{}, Codes: []string{"en"}}
	err := svc.SetTranslations("en", locale.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "read-only")
}

func TestServiceLanguages(t *testing.T) {
	svc, _ := newService(t)
	langs := svc.Languages()
	require.Len(t, langs, 3)
	assert.Equal(t, "en", langs[0].Code)
	assert.Equal(t, "Deutsch", langs[1].DisplayName)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerLanguages(t *testing.T) {
	svc, _ := newService(t)
	h := NewHandler(svc, nil)

	rec := do(t, h, http.MethodGet, "/api/languages", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "de", got[1]["code"])
	assert.Equal(t, "Deutsch", got[1]["displayName"])
}

func TestHandlerGetTranslationsKeepsOrder(t *testing.T) {
	svc, _ := newService(t)
	h := NewHandler(svc, nil)

	rec := do(t, h, http.MethodGet, "/api/translations/de", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"nav.home":"Start","nav.about":"Über"}`, strings.TrimSpace(rec.Body.String()))

	rec = do(t, h, http.MethodGet, "/api/translations/fr", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerPostTranslations(t *testing.T) {
	svc, store := newService(t)
	h := NewHandler(svc, nil)

	rec := do(t, h, http.MethodPost, "/api/translations/de", `{"nav.home":"Startseite","nav.about":"Über uns"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	m, err := store.LoadMapping("de")
	require.NoError(t, err)
	v, _ := m.Get("nav.home")
	assert.Equal(t, "Startseite", v)
}

func TestHandlerPostErrors(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		name   string
		svc    *Service
		path   string
		body   string
		status int
	}{
		{"malformed json", svc, "/api/translations/de", `{"a":`, http.StatusBadRequest},
		{"non-string value", svc, "/api/translations/de", `{"a":1}`, http.StatusBadRequest},
		{"empty key", svc, "/api/translations/de", `{"":"x"}`, http.StatusBadRequest},
		{"padded key", svc, "/api/translations/de", `{" nav.home ":"x"}`, http.StatusBadRequest},
		{"unknown language", svc, "/api/translations/es", `{}`, http.StatusNotFound},
		{"write error", &Service{Store: brokenStore{}, Codes: []string{"en"}}, "/api/translations/en", `{"a":"b"}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, NewHandler(tt.svc, nil), http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var resp struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	svc, _ := newService(t)
	rec := do(t, NewHandler(svc, nil), http.MethodDelete, "/api/translations/de", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandlerLogsRequests(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc, _ := newService(t)
	h := NewHandler(svc, zap.New(core))

	do(t, h, http.MethodGet, "/api/translations/xx", "")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/translations/xx", fields["path"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
}

func TestServeShutsDownOnCancel(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := context.WithCancel(context.Background())

	addrCh := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", NewHandler(svc, nil), func(a net.Addr) { addrCh <- a })
	}()

	addr := <-addrCh
	resp, err := http.Get("http://" + addr.String() + "/api/languages")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServiceParseErrorIsNotNotFound(t *testing.T) {
	svc, store := newService(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, "fr.ts"), []byte("const fr = { a: 1 };\nexport default fr;\n"), 0644))

	_, err := svc.GetTranslations("fr")
	var pe *localefile.ParseError
	assert.ErrorAs(t, err, &pe)

	rec := do(t, NewHandler(svc, nil), http.MethodGet, "/api/translations/fr", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
