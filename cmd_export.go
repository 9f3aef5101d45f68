package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minios-linux/sitetext/i18n"
	"github.com/minios-linux/sitetext/snapshot"
)

// ---------------------------------------------------------------------------
// export (write a snapshot bundle)
// ---------------------------------------------------------------------------

func newExportCmd() *cobra.Command {
	var (
		to     string
		format string
		langs  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot bundle of all languages",
		Long: `Bundle the locale modules into a single document:

  {"master": "en", "languages": {"en": {...}, "de": {...}}}

The destination is a local path (or file://), s3://bucket/key or
gs://bucket/object. S3 uses the standard AWS credential chain; set
SITETEXT_S3_PATH_STYLE=1 for S3-compatible servers. Google Cloud Storage
uses Application Default Credentials, or SITETEXT_GCS_ENDPOINT for an emulator.

The format follows --format, else the destination's extension
(.json, .yaml/.yml, .toml), else JSON.

Examples:
  sitetext export --to dist/texts.json
  sitetext export --to s3://site-assets/i18n/texts.yaml
  sitetext export --to gs://site-assets/texts --format toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			return runExport(cmd.Context(), a, to, format, langs)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Destination path or URL (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Bundle format: json, yaml or toml")
	cmd.Flags().StringVarP(&langs, "lang", "l", "", "Languages to include (comma-separated, default: all)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runExport(ctx context.Context, a *app, to, format, langFlag string) error {
	dest, err := snapshot.ParseDestination(to)
	if err != nil {
		return err
	}
	f, err := snapshot.FormatFor(format, dest)
	if err != nil {
		return err
	}
	langs, err := a.selectLanguages(langFlag)
	if err != nil {
		return err
	}

	bundle, err := snapshot.Build(a.cfg.Store(), a.cfg.Master, langs)
	if err != nil {
		return err
	}
	data, err := bundle.Encode(f)
	if err != nil {
		return err
	}

	sink, err := snapshot.Open(ctx, dest)
	if err != nil {
		return err
	}
	if err := sink.Put(ctx, data, f.ContentType()); err != nil {
		return fmt.Errorf("writing %s: %w", sink, err)
	}

	a.log.Info("snapshot exported",
		zap.String("destination", sink.String()),
		zap.String("format", string(f)),
		zap.Int("bytes", len(data)))
	logSuccess(i18n.N("Exported %d language to %s", "Exported %d languages to %s", len(langs)), len(langs), sink)
	return nil
}
