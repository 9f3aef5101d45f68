package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/sitetext/locale"
	"github.com/minios-linux/sitetext/remote"
)

// fakeServer is a tiny PostgREST stand-in backed by a MemTable.
type fakeServer struct {
	t     *testing.T
	mu    sync.Mutex
	table *remote.MemTable
	gets  int
	fail  bool
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	fs := &fakeServer{t: t, table: remote.NewMemTable()}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)
	return fs, srv
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assert.Equal(s.t, "/rest/v1/website_texts", r.URL.Path)
	assert.Equal(s.t, "secret", r.Header.Get("apikey"))
	assert.Equal(s.t, "Bearer secret", r.Header.Get("Authorization"))

	if s.fail {
		http.Error(w, `{"message":"boom"}`, http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	ctx := r.Context()
	switch r.Method {
	case http.MethodPost:
		assert.Equal(s.t, "key,language", q.Get("on_conflict"))
		assert.Contains(s.t, r.Header.Get("Prefer"), "resolution=merge-duplicates")
		var rows []remote.Record
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&rows))
		require.NoError(s.t, s.table.Upsert(ctx, rows))
		w.WriteHeader(http.StatusCreated)

	case http.MethodGet:
		s.gets++
		assert.Equal(s.t, "key,language,value,section", q.Get("select"))
		f := remote.Filter{
			Language: strings.TrimPrefix(q.Get("language"), "eq."),
			Prefix:   strings.TrimPrefix(q.Get("section"), "eq."),
		}
		for _, v := range q["key"] {
			if strings.HasPrefix(v, "eq.") {
				f.Key = strings.TrimPrefix(v, "eq.")
			}
		}
		rows, err := s.table.Select(ctx, f)
		require.NoError(s.t, err)
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		rows = rows[min(offset, len(rows)):]
		rows = rows[:min(limit, len(rows))]
		if rows == nil {
			rows = []remote.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)

	case http.MethodDelete:
		lang := strings.TrimPrefix(q.Get("language"), "eq.")
		list := strings.TrimSuffix(strings.TrimPrefix(q.Get("key"), "in.("), ")")
		var keys []string
		for _, k := range strings.Split(list, ",") {
			keys = append(keys, strings.Trim(k, `"`))
		}
		require.NoError(s.t, s.table.Delete(ctx, lang, keys))
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestUpsertAndSelectPaged(t *testing.T) {
	fs, srv := newFakeServer(t)
	c := New(srv.URL+"/", "secret", "")
	c.PageSize = 2
	ctx := context.Background()

	m := locale.FromPairs("a.one", "1", "a.two", "2", "b.one", "3", "c", "4", "d", "5")
	require.NoError(t, c.Upsert(ctx, remote.Records("en", m)))

	rows, err := c.Select(ctx, remote.Filter{Language: "en"})
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Equal(t, 3, fs.gets, "5 rows at 2 per page")

	rows, err = c.Select(ctx, remote.Filter{Prefix: "a"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSelectKeyPrefixFiltersClientSide(t *testing.T) {
	_, srv := newFakeServer(t)
	c := New(srv.URL, "secret", remote.DefaultTable)
	ctx := context.Background()
	require.NoError(t, c.Upsert(ctx, remote.Records("en", locale.FromPairs("a.one", "1", "a.two", "2"))))

	rows, err := c.Select(ctx, remote.Filter{Prefix: "a.t"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a.two", rows[0].Key)
}

func TestDelete(t *testing.T) {
	fs, srv := newFakeServer(t)
	c := New(srv.URL, "secret", "")
	ctx := context.Background()
	require.NoError(t, c.Upsert(ctx, remote.Records("en", locale.FromPairs("a", "1", "b", "2", "c", "3"))))

	require.NoError(t, c.Delete(ctx, "en", []string{"a", "c"}))
	assert.Equal(t, 1, fs.table.Len())
}

func TestErrorStatus(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.fail = true
	c := New(srv.URL, "secret", "")

	err := c.Upsert(context.Background(), []remote.Record{remote.NewRecord("en", "a", "1")})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "upsert", apiErr.Op)
}

func TestFilterQuery(t *testing.T) {
	q := filterQuery(remote.Filter{Key: "a", Language: "de", Prefix: "x_y.z"})
	assert.Equal(t, []string{"eq.a", `like.x\_y.z*`}, q["key"])
	assert.Equal(t, "eq.de", q.Get("language"))

	q = filterQuery(remote.Filter{Prefix: "nav"})
	assert.Equal(t, "eq.nav", q.Get("section"))
	assert.Empty(t, q["key"])
}

func TestQuoteValue(t *testing.T) {
	assert.Equal(t, `"plain"`, quoteValue("plain"))
	assert.Equal(t, `"say \"hi\""`, quoteValue(`say "hi"`))
	assert.Equal(t, `"a,b"`, quoteValue("a,b"))
}
