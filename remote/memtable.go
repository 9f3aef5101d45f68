package remote

import (
	"context"
	"sync"
)

// MemTable is an in-memory Table.
type MemTable struct {
	mu   sync.Mutex
	rows map[rowID]Record
}

type rowID struct{ key, lang string }

// NewMemTable returns an empty table.
func NewMemTable() *MemTable {
	return &MemTable{rows: make(map[rowID]Record)}
}

func (t *MemTable) Upsert(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range records {
		t.rows[rowID{r.Key, r.Language}] = r
	}
	return nil
}

func (t *MemTable) Select(ctx context.Context, f Filter) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Record
	for _, r := range t.rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	SortRecords(out)
	return out, nil
}

func (t *MemTable) Delete(ctx context.Context, lang string, keys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range keys {
		delete(t.rows, rowID{k, lang})
	}
	return nil
}

// Len returns the number of rows.
func (t *MemTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}
