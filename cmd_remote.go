package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/minios-linux/sitetext/i18n"
	"github.com/minios-linux/sitetext/lockfile"
	"github.com/minios-linux/sitetext/remote"
)

// ---------------------------------------------------------------------------
// pull (inspect remote rows)
// ---------------------------------------------------------------------------

func newPullCmd() *cobra.Command {
	var (
		filter remote.Filter
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Show rows of the remote table",
		Long: `Print rows of the remote table, sorted by key and language.

--section takes a section name ("articles") or any key prefix
containing a dot ("articles.t").

Examples:
  sitetext pull --lang de
  sitetext pull --section nav --json
  sitetext pull --key footer.copyright`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			return runPull(cmd.Context(), a, cmd.OutOrStdout(), filter, asJSON)
		},
	}

	cmd.Flags().StringVarP(&filter.Language, "lang", "l", "", "Only rows of this language")
	cmd.Flags().StringVarP(&filter.Key, "key", "k", "", "Only rows with this exact key")
	cmd.Flags().StringVarP(&filter.Prefix, "section", "s", "", "Only rows of this section or key prefix")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rows as a JSON array")

	return cmd
}

func runPull(ctx context.Context, a *app, out io.Writer, filter remote.Filter, asJSON bool) error {
	table, closeTable, err := a.openTable()
	if err != nil {
		return err
	}
	defer closeTable()

	rows, err := a.syncer(table).Pull(ctx, filter)
	if err != nil {
		return err
	}

	if asJSON {
		if rows == nil {
			rows = []remote.Record{}
		}
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%q\n", r.Language, r.Key, r.Value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	logInfo(i18n.N("%d row", "%d rows", len(rows)), len(rows))
	return nil
}

// ---------------------------------------------------------------------------
// drift (compare the remote table with the locale files)
// ---------------------------------------------------------------------------

func newDriftCmd() *cobra.Command {
	var langs string

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Compare the remote table with the locale files",
		Long: `Report, per language, keys missing from the remote table, rows whose
value differs from the locale file and remote rows whose key no longer
exists locally. Nothing is modified. Exits with status 1 when any drift
is found.

Examples:
  sitetext drift
  sitetext drift --lang en,de -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			return runDrift(cmd.Context(), a, langs)
		},
	}

	cmd.Flags().StringVarP(&langs, "lang", "l", "", "Languages to check (comma-separated, default: all)")

	return cmd
}

func runDrift(ctx context.Context, a *app, langFlag string) error {
	langs, err := a.selectLanguages(langFlag)
	if err != nil {
		return err
	}
	table, closeTable, err := a.openTable()
	if err != nil {
		return err
	}
	defer closeTable()

	s := a.syncer(table)
	store := a.cfg.Store()
	drifted, failed := 0, 0

	for _, lang := range langs {
		local, err := store.LoadMapping(lang)
		if err != nil {
			failed++
			logError("%s: %v", lang, err)
			continue
		}
		report, err := s.Drift(ctx, lang, local)
		if err != nil {
			return err
		}
		if !report.HasDrift() {
			logSuccess(i18n.T("%s: in sync"), lang)
			continue
		}
		drifted++
		logWarning(i18n.T("%s: %d missing, %d stale, %d orphaned"),
			lang, len(report.Missing), len(report.Stale), len(report.Orphaned))
		printKeys("+", report.Missing, keysShown)
		printKeys("~", report.Stale, keysShown)
		printKeys("-", report.Orphaned, keysShown)
	}

	if drifted > 0 || failed > 0 {
		if drifted > 0 {
			logInfo(i18n.T("Run 'sitetext import' to push local changes and 'sitetext prune <lang>' to delete orphaned rows"))
		}
		return errReported
	}
	return nil
}

// ---------------------------------------------------------------------------
// prune (delete orphaned remote rows)
// ---------------------------------------------------------------------------

func newPruneCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "prune <lang>",
		Short: "Delete remote rows that no longer exist locally",
		Long: `Delete the remote rows of a language whose key is no longer present in
its locale file. Without --yes the rows are only listed.

Examples:
  sitetext prune de
  sitetext prune de --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			return runPrune(cmd.Context(), a, args[0], yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")

	return cmd
}

func runPrune(ctx context.Context, a *app, lang string, yes bool) error {
	if !a.cfg.HasLanguage(lang) {
		return fmt.Errorf("language %q is not configured (have %v)", lang, a.cfg.Languages)
	}
	local, err := a.cfg.Store().LoadMapping(lang)
	if err != nil {
		return err
	}

	table, closeTable, err := a.openTable()
	if err != nil {
		return err
	}
	defer closeTable()

	s := a.syncer(table)
	report, err := s.Drift(ctx, lang, local)
	if err != nil {
		return err
	}
	orphaned := report.Orphaned
	if len(orphaned) == 0 {
		logSuccess(i18n.T("%s: no orphaned rows"), lang)
		return nil
	}

	if !yes {
		logWarning(i18n.N("%s: %d orphaned row", "%s: %d orphaned rows", len(orphaned)), lang, len(orphaned))
		printKeys("-", orphaned, keysShown)
		logInfo(i18n.T("Re-run with --yes to delete them"))
		return errReported
	}

	n, err := s.Prune(ctx, lang, orphaned)
	if n > 0 {
		if lock, lerr := lockfile.Load(a.cfg.LockPath(), a.cfg.Remote.Table); lerr == nil {
			lock.Forget(lang, orphaned[:n])
			saveLock(a, lock)
		}
	}
	if err != nil {
		return err
	}
	logSuccess(i18n.N("%s: deleted %d row", "%s: deleted %d rows", n), lang, n)
	return nil
}
