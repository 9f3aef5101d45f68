package remote

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/minios-linux/sitetext/locale"
)

const (
	// DefaultBatchSize is the number of rows sent per upsert.
	DefaultBatchSize = 50
	// DefaultDelay is the pause between batches.
	DefaultDelay = 200 * time.Millisecond
)

// Syncer pushes mappings to a Table and inspects it.
type Syncer struct {
	Table     Table
	BatchSize int
	// Delay is waited between consecutive batches to go easy on the
	// remote service. Zero disables it.
	Delay  time.Duration
	Logger *zap.Logger
	// OnBatch, when set, is called after every attempted batch.
	OnBatch func(BatchResult)
}

// NewSyncer returns a syncer with default batching.
func NewSyncer(table Table, logger *zap.Logger) *Syncer {
	return &Syncer{Table: table, BatchSize: DefaultBatchSize, Delay: DefaultDelay, Logger: logger}
}

func (s *Syncer) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// BatchCount returns the number of batches needed for n rows.
func (s *Syncer) BatchCount(n int) int {
	size := s.batchSize()
	return (n + size - 1) / size
}

func (s *Syncer) batchSize() int {
	if s.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return s.BatchSize
}

// BatchResult is the outcome of one upsert batch.
type BatchResult struct {
	// Index is the zero-based batch number.
	Index int
	Keys  []string
	Err   error
}

// PushResult summarizes a push.
type PushResult struct {
	Succeeded int
	Failed    int
	Batches   []BatchResult
}

// SucceededKeys returns the keys of every successful batch.
func (r PushResult) SucceededKeys() []string {
	var out []string
	for _, b := range r.Batches {
		if b.Err == nil {
			out = append(out, b.Keys...)
		}
	}
	return out
}

// Push upserts the mapping for lang in batches. A failed batch is counted
// and the remaining batches are still sent. The error is non-nil only when
// ctx is cancelled, in which case the result covers the batches attempted
// so far.
func (s *Syncer) Push(ctx context.Context, lang string, m *locale.Mapping) (PushResult, error) {
	return s.PushRecords(ctx, Records(lang, m))
}

// PushRecords upserts records in batches; see Push.
func (s *Syncer) PushRecords(ctx context.Context, records []Record) (PushResult, error) {
	var res PushResult
	size := s.batchSize()
	log := s.logger()

	for start, index := 0, 0; start < len(records); start, index = start+size, index+1 {
		if index > 0 {
			if err := wait(ctx, s.Delay); err != nil {
				return res, err
			}
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		end := min(start+size, len(records))
		batch := records[start:end]
		br := BatchResult{Index: index, Keys: make([]string, len(batch))}
		for i, r := range batch {
			br.Keys[i] = r.Key
		}

		if err := s.Table.Upsert(ctx, batch); err != nil {
			br.Err = err
			res.Failed += len(batch)
			log.Warn("batch upsert failed",
				zap.Int("batch", index+1),
				zap.Int("rows", len(batch)),
				zap.Error(err))
		} else {
			res.Succeeded += len(batch)
			log.Debug("batch upserted",
				zap.Int("batch", index+1),
				zap.Int("rows", len(batch)))
		}
		res.Batches = append(res.Batches, br)
		if s.OnBatch != nil {
			s.OnBatch(br)
		}
	}

	log.Info("push finished",
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
		zap.Int("batches", len(res.Batches)))
	return res, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pull returns the rows matching f, sorted by key and language.
func (s *Syncer) Pull(ctx context.Context, f Filter) ([]Record, error) {
	records, err := s.Table.Select(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("selecting rows: %w", err)
	}
	SortRecords(records)
	return records, nil
}

// DriftReport lists the differences between a local mapping and the
// remote rows of the same language.
type DriftReport struct {
	Language string
	// Missing keys exist locally but not remotely.
	Missing []string
	// Stale keys exist on both sides with different values.
	Stale []string
	// Orphaned keys exist remotely but not locally.
	Orphaned []string
}

// HasDrift reports whether any difference was found.
func (d DriftReport) HasDrift() bool {
	return len(d.Missing) > 0 || len(d.Stale) > 0 || len(d.Orphaned) > 0
}

// Drift compares the remote rows of lang with the local mapping.
func (s *Syncer) Drift(ctx context.Context, lang string, local *locale.Mapping) (DriftReport, error) {
	report := DriftReport{Language: lang}

	records, err := s.Table.Select(ctx, Filter{Language: lang})
	if err != nil {
		return report, fmt.Errorf("selecting rows for %s: %w", lang, err)
	}

	remoteValues := make(map[string]string, len(records))
	for _, r := range records {
		remoteValues[r.Key] = r.Value
	}

	local.Range(func(k, v string) bool {
		rv, ok := remoteValues[k]
		switch {
		case !ok:
			report.Missing = append(report.Missing, k)
		case rv != v:
			report.Stale = append(report.Stale, k)
		}
		return true
	})

	for k := range remoteValues {
		if !local.Has(k) {
			report.Orphaned = append(report.Orphaned, k)
		}
	}
	sort.Strings(report.Orphaned)

	return report, nil
}

// Prune deletes the given rows of lang in batches. It is only ever called
// on explicit request; Push and Drift never delete.
func (s *Syncer) Prune(ctx context.Context, lang string, keys []string) (int, error) {
	size := s.batchSize()
	deleted := 0
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		if err := s.Table.Delete(ctx, lang, keys[start:end]); err != nil {
			return deleted, fmt.Errorf("deleting rows for %s: %w", lang, err)
		}
		deleted += end - start
	}
	s.logger().Info("pruned rows", zap.String("language", lang), zap.Int("rows", deleted))
	return deleted, nil
}
