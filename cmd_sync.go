package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minios-linux/sitetext/i18n"
	"github.com/minios-linux/sitetext/localefile"
	"github.com/minios-linux/sitetext/reconcile"
)

// keysShown is how many changed keys sync lists per language without
// --verbose.
const keysShown = 10

// ---------------------------------------------------------------------------
// sync (reconcile languages against the master)
// ---------------------------------------------------------------------------

func newSyncCmd() *cobra.Command {
	var (
		dryRun bool
		langs  string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile every language against the master",
		Long: `Reconcile each non-master locale module against the master language.

Keys missing from a language are added with the master's value, keys the
master no longer has are removed, and the result follows the master's key
order. Existing translations are never changed. Languages without a
locale module are created from the master.

Examples:
  sitetext sync
  sitetext sync --dry-run
  sitetext sync --lang de,ru -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			return runSync(a, langs, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would change without writing files")
	cmd.Flags().StringVarP(&langs, "lang", "l", "", "Languages to reconcile (comma-separated, default: all)")

	return cmd
}

func runSync(a *app, langFlag string, dryRun bool) error {
	langs, err := a.cfg.Targets(splitList(langFlag))
	if err != nil {
		return err
	}
	if len(langs) == 0 {
		logInfo(i18n.T("No languages besides the master %s"), a.cfg.Master)
		return nil
	}

	store := a.cfg.Store()
	logInfo(i18n.T("Reconciling %d languages against %s (%s)"), len(langs), a.cfg.Master, store.Dir)

	results, err := reconcile.Run(store, reconcile.Options{
		Master:    a.cfg.Master,
		Languages: langs,
		DryRun:    dryRun,
	})
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			var pe *localefile.ParseError
			if errors.As(r.Err, &pe) {
				logError(i18n.T("%s: skipped, %v"), r.Lang, r.Err)
			} else {
				logError("%s: %v", r.Lang, r.Err)
			}
			a.log.Warn("language skipped", zap.String("lang", r.Lang), zap.Error(r.Err))
			continue
		}
		printSyncResult(r, dryRun)
	}

	added, removed := reconcile.Totals(results)
	summary := fmt.Sprintf(i18n.T("%d added, %d removed"), added, removed)
	switch {
	case failed > 0:
		logWarning(i18n.N("%s; %d language failed", "%s; %d languages failed", failed), summary, failed)
		return errReported
	case dryRun:
		logInfo(i18n.T("Dry run: %s"), summary)
	default:
		logSuccess(i18n.T("Done: %s"), summary)
	}
	return nil
}

func printSyncResult(r reconcile.LanguageResult, dryRun bool) {
	added, removed := r.Report.Added(), r.Report.Removed()

	var state string
	switch {
	case r.Created && dryRun:
		state = i18n.T("would be created")
	case r.Created:
		state = i18n.T("created")
	case r.Reordered && dryRun:
		state = i18n.T("would be reordered")
	case r.Reordered:
		state = i18n.T("reordered")
	case !r.Report.Changed():
		state = i18n.T("up to date")
	case dryRun:
		state = i18n.T("would change")
	default:
		state = i18n.T("updated")
	}

	var counts []string
	if len(added) > 0 {
		counts = append(counts, fmt.Sprintf("%s+%d%s", colorGreen, len(added), colorReset))
	}
	if len(removed) > 0 {
		counts = append(counts, fmt.Sprintf("%s-%d%s", colorRed, len(removed), colorReset))
	}
	fmt.Fprintf(stderr, "  %-8s %-16s %s\n", r.Lang, state, strings.Join(counts, " "))

	if !r.Created {
		printKeys("+", added, keysShown)
	}
	printKeys("-", removed, keysShown)
}
