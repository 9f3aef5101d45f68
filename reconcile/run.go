package reconcile

import (
	"errors"
	"fmt"

	"github.com/minios-linux/sitetext/locale"
	"github.com/minios-linux/sitetext/localefile"
)

// Store loads and saves locale mappings by language code.
// *localefile.Store satisfies it.
type Store interface {
	LoadMapping(lang string) (*locale.Mapping, error)
	Save(lang string, translations *locale.Mapping) error
}

// Options configures a multi-language run.
type Options struct {
	// Master is the authoritative language.
	Master string
	// Languages are the languages to reconcile; the master is skipped.
	Languages []string
	// DryRun computes reports without writing files.
	DryRun bool
}

// LanguageResult is the outcome for one target language.
type LanguageResult struct {
	Lang   string
	Report Report
	// Created is set when the language had no locale file yet.
	Created bool
	// Reordered is set when the target held the master's keys in another
	// order.
	Reordered bool
	// Saved is set when the corrected mapping was written.
	Saved bool
	// Err holds a load or save failure. Other languages are still processed.
	Err error
}

// Run reconciles every target language against the master, one language at
// a time. Only a failure to load the master aborts the run; per-language
// failures are reported in the results.
func Run(store Store, opts Options) ([]LanguageResult, error) {
	master, err := store.LoadMapping(opts.Master)
	if err != nil {
		return nil, fmt.Errorf("loading master language %s: %w", opts.Master, err)
	}

	var results []LanguageResult
	for _, lang := range opts.Languages {
		if lang == opts.Master {
			continue
		}
		results = append(results, runLanguage(store, master, lang, opts.DryRun))
	}
	return results, nil
}

func runLanguage(store Store, master *locale.Mapping, lang string, dryRun bool) LanguageResult {
	res := LanguageResult{Lang: lang}

	target, err := store.LoadMapping(lang)
	switch {
	case errors.Is(err, localefile.ErrNotFound):
		// Never persisted: bootstrap from the master.
		res.Created = true
		target = nil
	case err != nil:
		res.Err = err
		return res
	}

	corrected, report := Reconcile(master, target)
	res.Report = report
	res.Reordered = !res.Created && !report.Changed() && !corrected.SameOrder(target)

	if dryRun || (!report.Changed() && !res.Created && !res.Reordered) {
		return res
	}
	if err := store.Save(lang, corrected); err != nil {
		res.Err = err
		return res
	}
	res.Saved = true
	return res
}

// Totals sums added and removed keys over results.
func Totals(results []LanguageResult) (added, removed int) {
	for _, r := range results {
		added += len(r.Report.Added())
		removed += len(r.Report.Removed())
	}
	return added, removed
}
