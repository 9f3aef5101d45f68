// sitetext — keeps a website's per-language locale modules consistent with
// the master language and mirrors them into a hosted key/value table.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minios-linux/sitetext/config"
	"github.com/minios-linux/sitetext/i18n"
	"github.com/minios-linux/sitetext/logging"
	"github.com/minios-linux/sitetext/remote"
	"github.com/minios-linux/sitetext/remote/postgrest"
	"github.com/minios-linux/sitetext/remote/sqltable"
	"github.com/minios-linux/sitetext/settings"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

// stderr receives progress and diagnostics; stdout carries command output.
var stderr io.Writer = os.Stderr

func logInfo(format string, args ...any) {
	fmt.Fprintf(stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// errReported is returned by commands that already explained the failure;
// main only sets the exit code.
var errReported = errors.New("reported")

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
	verbose    bool
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sitetext",
		Short: "Translation consistency engine for website locale files",
		Long: `sitetext — keeps website locale modules consistent.

The master language (default "en") is authoritative: every other language
must have exactly its keys, in its order. Existing translations are never
overwritten. Locale modules can be mirrored into a remote key/value table
(PostgREST/Supabase or a local SQLite mirror).

Commands:
  sync      Reconcile every language against the master
  status    Show per-language completeness
  import    Push locale files to the remote table
  pull      Show rows of the remote table
  drift     Compare the remote table with the locale files
  prune     Delete remote rows that no longer exist locally
  export    Write a snapshot bundle of all languages
  serve     Start the editor API
  auth      Manage stored remote credentials`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flags — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <root>/"+config.FileName+")")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output and debug logging")

	root.AddCommand(
		newSyncCmd(),
		newStatusCmd(),
		newImportCmd(),
		newPullCmd(),
		newDriftCmd(),
		newPruneCmd(),
		newExportCmd(),
		newServeCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errReported) {
			logError("%v", err)
		}
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sitetext version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Shared command state
// ---------------------------------------------------------------------------

type app struct {
	cfg *config.File
	log *zap.Logger
}

func loadApp() (*app, error) {
	cfg, err := config.Load(rootDir, configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(verbose)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: logger}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

// openTable connects to the configured remote table. Stored credentials are
// read here; missing ones fail before any work begins.
func (a *app) openTable() (remote.Table, func() error, error) {
	r := &a.cfg.Remote
	switch r.Driver {
	case config.DriverSQLite:
		path := r.SQLiteFile(a.cfg.Root)
		t, err := sqltable.Open(path, r.Table)
		if err != nil {
			return nil, nil, err
		}
		a.log.Debug("opened sqlite mirror", zap.String("path", path), zap.String("table", r.Table))
		return t, t.Close, nil
	default:
		if err := r.LoadStored(settings.Get); err != nil {
			return nil, nil, err
		}
		if err := r.Validate(); err != nil {
			return nil, nil, err
		}
		a.log.Debug("using postgrest table", zap.String("url", r.URL), zap.String("table", r.Table))
		return postgrest.New(r.URL, r.Key, r.Table), func() error { return nil }, nil
	}
}

func (a *app) syncer(table remote.Table) *remote.Syncer {
	return &remote.Syncer{
		Table:     table,
		BatchSize: a.cfg.Remote.BatchSize,
		Delay:     a.cfg.Remote.BatchDelay,
		Logger:    a.log,
	}
}

// selectLanguages resolves a --lang value against the configuration.
func (a *app) selectLanguages(flag string) ([]string, error) {
	return a.cfg.Select(splitList(flag))
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
