// Package postgrest implements remote.Table over a PostgREST endpoint such
// as the one exposed by Supabase.
package postgrest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/minios-linux/sitetext/remote"
)

// DefaultPageSize is the number of rows fetched per Select request.
const DefaultPageSize = 1000

const columns = "key,language,value,section"

// APIError is a non-2xx response.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("postgrest %s: HTTP %d; body: %s", e.Op, e.Status, e.Body)
}

// Client talks to one table through PostgREST.
type Client struct {
	http     *resty.Client
	table    string
	PageSize int
}

var _ remote.Table = (*Client)(nil)

// New returns a client for table at baseURL, authenticating with apiKey.
func New(baseURL, apiKey, table string) *Client {
	if table == "" {
		table = remote.DefaultTable
	}
	c := resty.New().
		SetTimeout(30*time.Second).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("apikey", apiKey).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Accept", "application/json")
	return &Client{http: c, table: table, PageSize: DefaultPageSize}
}

func (c *Client) path() string {
	return "/rest/v1/" + url.PathEscape(c.table)
}

func check(op string, r *resty.Response) error {
	if r.IsError() {
		return &APIError{Op: op, Status: r.StatusCode(), Body: r.String()}
	}
	return nil
}

// Upsert posts records, merging rows that collide on (key, language).
func (c *Client) Upsert(ctx context.Context, records []remote.Record) error {
	if len(records) == 0 {
		return nil
	}
	r, err := c.http.R().SetContext(ctx).
		SetQueryParam("on_conflict", "key,language").
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetBody(records).
		Post(c.path())
	if err != nil {
		return err
	}
	return check("upsert", r)
}

// Select fetches matching rows page by page.
func (c *Client) Select(ctx context.Context, f remote.Filter) ([]remote.Record, error) {
	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var out []remote.Record
	for offset := 0; ; offset += pageSize {
		q := filterQuery(f)
		q.Set("select", columns)
		q.Set("order", "key.asc,language.asc")
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))

		var page []remote.Record
		r, err := c.http.R().SetContext(ctx).
			SetQueryParamsFromValues(q).
			SetResult(&page).
			Get(c.path())
		if err != nil {
			return nil, err
		}
		if err := check("select", r); err != nil {
			return nil, err
		}
		for _, rec := range page {
			// like patterns are looser than a literal prefix
			if f.Match(rec) {
				out = append(out, rec)
			}
		}
		if len(page) < pageSize {
			return out, nil
		}
	}
}

func filterQuery(f remote.Filter) url.Values {
	q := url.Values{}
	if f.Key != "" {
		q.Add("key", "eq."+f.Key)
	}
	if f.Language != "" {
		q.Set("language", "eq."+f.Language)
	}
	switch {
	case f.IsSection():
		q.Set("section", "eq."+f.Prefix)
	case f.Prefix != "":
		q.Add("key", "like."+likeEscape(f.Prefix)+"*")
	}
	return q
}

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `\*`)

func likeEscape(s string) string {
	return likeReplacer.Replace(s)
}

// Delete removes the rows of lang with the given keys.
func (c *Client) Delete(ctx context.Context, lang string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = quoteValue(k)
	}
	q := url.Values{}
	q.Set("language", "eq."+lang)
	q.Set("key", "in.("+strings.Join(quoted, ",")+")")

	r, err := c.http.R().SetContext(ctx).
		SetHeader("Prefer", "return=minimal").
		SetQueryParamsFromValues(q).
		Delete(c.path())
	if err != nil {
		return err
	}
	return check("delete", r)
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quoteValue(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
