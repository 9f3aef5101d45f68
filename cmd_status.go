package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/sitetext/i18n"
	"github.com/minios-linux/sitetext/locale"
	"github.com/minios-linux/sitetext/localefile"
	"github.com/minios-linux/sitetext/lockfile"
)

// ---------------------------------------------------------------------------
// status (per-language completeness)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show project info and translation statistics",
		Long: `Show the configuration in use and a completeness table with, per
language: key count, keys missing compared to the master, extra keys the
master does not have, empty values and the share of master keys that
carry a translation. Does not modify any files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			return runStatus(a, cmd.OutOrStdout())
		},
	}
}

// langStats is one row of the status table.
type langStats struct {
	Lang       string
	Keys       int
	Missing    int
	Extra      int
	Empty      int
	Translated int
}

// compareToMaster counts how target deviates from master.
func compareToMaster(lang string, master, target *locale.Mapping) langStats {
	s := langStats{Lang: lang, Keys: target.Len(), Empty: target.Empty()}
	master.Range(func(key, _ string) bool {
		v, ok := target.Get(key)
		switch {
		case !ok:
			s.Missing++
		case v != "":
			s.Translated++
		}
		return true
	})
	target.Range(func(key, _ string) bool {
		if !master.Has(key) {
			s.Extra++
		}
		return true
	})
	return s
}

func runStatus(a *app, out io.Writer) error {
	cfg := a.cfg
	store := cfg.Store()

	fmt.Fprintf(out, "\n%s%s%s\n", colorBlue, i18n.T("Project"), colorReset)
	fmt.Fprintln(out, strings.Repeat("─", 60))
	source := cfg.Path
	if source == "" {
		source = i18n.T("(defaults)")
	}
	fmt.Fprintf(out, "  %-12s %s\n", i18n.T("Config:"), source)
	fmt.Fprintf(out, "  %-12s %s\n", i18n.T("Locales:"), store.Dir)
	fmt.Fprintf(out, "  %-12s %s\n", i18n.T("Master:"), cfg.Master)
	fmt.Fprintf(out, "  %-12s %s (%s)\n", i18n.T("Remote:"), cfg.Remote.Driver, cfg.Remote.Table)
	if lf, err := lockfile.Load(cfg.LockPath(), cfg.Remote.Table); err == nil {
		fmt.Fprintf(out, "  %-12s %s\n", i18n.T("Pushed:"), lf.Summary())
	}
	fmt.Fprintln(out)

	master, err := store.LoadMapping(cfg.Master)
	if err != nil {
		return fmt.Errorf("loading master language %s: %w", cfg.Master, err)
	}

	width := max(langColumnWidth(cfg.Languages), 4)
	header := fmt.Sprintf("%-*s %6s %8s %6s %6s  %s", width+3, i18n.T("Lang"),
		i18n.T("Keys"), i18n.T("Missing"), i18n.T("Extra"), i18n.T("Empty"), i18n.T("Progress"))
	fmt.Fprintf(out, "%s%s%s\n", colorBlue, i18n.T("Translation Statistics"), colorReset)
	fmt.Fprintln(out, strings.Repeat("─", 60))
	fmt.Fprintln(out, header)

	for _, lang := range cfg.Languages {
		cell := langCell(lang, width)
		target, err := store.LoadMapping(lang)
		if err != nil {
			reason := i18n.T("unreadable")
			if errors.Is(err, localefile.ErrNotFound) {
				reason = i18n.T("missing")
			}
			fmt.Fprintf(out, "%s %6s %8s %6s %6s  %s\n", cell, "-", "-", "-", "-", reason)
			continue
		}
		s := compareToMaster(lang, master, target)
		fmt.Fprintf(out, "%s %6d %8d %6d %6d  %s\n", cell, s.Keys, s.Missing, s.Extra, s.Empty,
			progressBar(percentOf(s.Translated, master.Len()), 20))
	}

	fmt.Fprintln(out, strings.Repeat("─", 60))
	fmt.Fprintf(out, i18n.T("Master keys: %d")+"\n\n", master.Len())
	return nil
}
