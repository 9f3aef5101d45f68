// Package reconcile keeps per-language locale mappings aligned with the
// master language.
//   - Keys present in the master but missing from the target are added with
//     the master's text.
//   - Keys present in the target but no longer in the master are dropped.
//   - Existing target values are never overwritten.
//   - The result follows the master's key order.
package reconcile

import (
	"github.com/minios-linux/sitetext/locale"
)

// Action is the kind of structural change made to a target mapping.
type Action string

const (
	Added   Action = "added"
	Removed Action = "removed"
)

// Change is one entry of a reconciliation report.
type Change struct {
	Key    string
	Action Action
}

// Report lists the changes of one reconciliation in order: additions in
// master order first, then removals in target order.
type Report struct {
	Changes []Change
}

// Changed reports whether reconciliation altered the target's key set.
func (r Report) Changed() bool {
	return len(r.Changes) > 0
}

// Added returns the keys that were added.
func (r Report) Added() []string {
	return r.keys(Added)
}

// Removed returns the keys that were removed.
func (r Report) Removed() []string {
	return r.keys(Removed)
}

func (r Report) keys(a Action) []string {
	var out []string
	for _, c := range r.Changes {
		if c.Action == a {
			out = append(out, c.Key)
		}
	}
	return out
}

// Reconcile returns target corrected against master, plus the report of
// what changed. A nil target is treated as empty, in which case the result
// equals master and every key is reported as added.
func Reconcile(master, target *locale.Mapping) (*locale.Mapping, Report) {
	result := locale.New()
	var report Report

	// Process master keys in order
	master.Range(func(key, masterValue string) bool {
		if v, ok := target.Get(key); ok {
			result.Set(key, v)
			return true
		}
		result.Set(key, masterValue)
		report.Changes = append(report.Changes, Change{Key: key, Action: Added})
		return true
	})

	// Keys the master no longer has are simply not copied
	target.Range(func(key, _ string) bool {
		if !master.Has(key) {
			report.Changes = append(report.Changes, Change{Key: key, Action: Removed})
		}
		return true
	})

	return result, report
}
