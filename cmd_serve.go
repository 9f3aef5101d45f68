package main

import (
	"net"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minios-linux/sitetext/config"
	"github.com/minios-linux/sitetext/editor"
	"github.com/minios-linux/sitetext/i18n"
	"github.com/minios-linux/sitetext/logging"
)

// ---------------------------------------------------------------------------
// serve (editor API)
// ---------------------------------------------------------------------------

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the editor API",
		Long: `Serve the locale files to an editing UI over HTTP:

  GET  /api/languages              configured languages with display names
  GET  /api/translations/{lang}    the mapping of one language
  POST /api/translations/{lang}    replace the mapping of one language

Writes go straight to the locale files; run 'sitetext sync' afterwards to
bring the other languages in line. Stops on Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootDir, configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Editor.Addr = addr
			}

			logger, err := logging.NewServer(verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			svc := &editor.Service{Store: cfg.Store(), Codes: cfg.Languages}
			return editor.Serve(cmd.Context(), cfg.Editor.Addr, editor.NewHandler(svc, logger), func(a net.Addr) {
				logger.Info("editor api listening", zap.String("addr", a.String()))
				logInfo(i18n.T("Editor API on http://%s (Ctrl+C to stop)"), a)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.DefaultEditorAddr, "Listen address")

	return cmd
}
