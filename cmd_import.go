package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minios-linux/sitetext/i18n"
	"github.com/minios-linux/sitetext/lockfile"
	"github.com/minios-linux/sitetext/remote"
)

// ---------------------------------------------------------------------------
// import (push locale modules to the remote table)
// ---------------------------------------------------------------------------

type importOptions struct {
	batchSize int
	delay     time.Duration
	changed   bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import [lang...]",
		Short: "Push locale files to the remote table",
		Long: `Upsert the entries of one or more locale modules into the remote table,
one row per (key, language), in batches. A failed batch is reported and
the remaining batches are still sent.

Without arguments every configured language is pushed. With --changed
only keys whose value differs from the last successful push (recorded
in .sitetext.lock) are sent.

Examples:
  sitetext import en
  sitetext import de ru --changed
  sitetext import --batch-size 100 --delay 500ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			if !cmd.Flags().Changed("batch-size") {
				opts.batchSize = a.cfg.Remote.BatchSize
			}
			if !cmd.Flags().Changed("delay") {
				opts.delay = a.cfg.Remote.BatchDelay
			}
			return runImport(cmd.Context(), a, args, opts)
		},
	}

	cmd.Flags().IntVar(&opts.batchSize, "batch-size", remote.DefaultBatchSize, "Records per upsert request")
	cmd.Flags().DurationVar(&opts.delay, "delay", remote.DefaultDelay, "Pause between batches")
	cmd.Flags().BoolVar(&opts.changed, "changed", false, "Push only keys changed since the last push")

	return cmd
}

func runImport(ctx context.Context, a *app, args []string, opts importOptions) error {
	langs, err := a.cfg.Select(args)
	if err != nil {
		return err
	}
	if opts.batchSize <= 0 {
		return fmt.Errorf("--batch-size must be positive, got %d", opts.batchSize)
	}

	table, closeTable, err := a.openTable()
	if err != nil {
		return err
	}
	defer closeTable()

	lock, err := lockfile.Load(a.cfg.LockPath(), a.cfg.Remote.Table)
	if err != nil {
		return err
	}

	s := a.syncer(table)
	s.BatchSize = opts.batchSize
	s.Delay = opts.delay

	store := a.cfg.Store()
	var total remote.PushResult
	failedLangs := 0

	for _, lang := range langs {
		m, err := store.LoadMapping(lang)
		if err != nil {
			failedLangs++
			logError("%s: %v", lang, err)
			continue
		}

		toPush := m
		if opts.changed {
			toPush = lock.FilterChanged(lang, m)
		}
		lock.Clean(lang, m.Keys())
		if toPush.Len() == 0 {
			logInfo(i18n.T("%s: nothing to push"), lang)
			continue
		}

		batches := s.BatchCount(toPush.Len())
		logInfo(i18n.N("%s: pushing %d key in %d batches", "%s: pushing %d keys in %d batches", toPush.Len()),
			lang, toPush.Len(), batches)
		s.OnBatch = func(b remote.BatchResult) {
			if b.Err != nil {
				logWarning(i18n.T("  batch %d/%d: %d failed: %v"), b.Index+1, batches, len(b.Keys), b.Err)
				return
			}
			logInfo(i18n.T("  batch %d/%d: %d ok"), b.Index+1, batches, len(b.Keys))
		}

		res, err := s.Push(ctx, lang, toPush)
		lock.UpdateKeys(lang, m, res.SucceededKeys())
		total.Succeeded += res.Succeeded
		total.Failed += res.Failed
		if err != nil {
			saveLock(a, lock)
			return err
		}
		printPushResult(lang, res)
	}

	saveLock(a, lock)

	summary := fmt.Sprintf(i18n.T("%d succeeded, %d failed"), total.Succeeded, total.Failed)
	if total.Failed > 0 || failedLangs > 0 {
		logWarning(i18n.T("Import finished with errors: %s"), summary)
		return errReported
	}
	logSuccess(i18n.T("Import finished: %s"), summary)
	return nil
}

func printPushResult(lang string, res remote.PushResult) {
	if res.Failed > 0 {
		logWarning(i18n.T("%s: %d succeeded, %d failed"), lang, res.Succeeded, res.Failed)
		return
	}
	logSuccess(i18n.T("%s: %d succeeded"), lang, res.Succeeded)
}

func saveLock(a *app, lock *lockfile.LockFile) {
	if err := lock.Save(); err != nil {
		logWarning(i18n.T("Could not save lock file: %v"), err)
		a.log.Warn("lock file not saved", zap.String("path", lock.Path()), zap.Error(err))
	}
}
