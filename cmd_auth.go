package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/sitetext/config"
	"github.com/minios-linux/sitetext/i18n"
	"github.com/minios-linux/sitetext/settings"
)

// ---------------------------------------------------------------------------
// auth (stored remote credentials)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored remote credentials",
		Long: `Store the URL and API key of the remote table so they need not be
exported in every shell. Environment variables always take precedence.

Credentials are kept per profile; .sitetext.yaml selects one with
remote.profile (default "default").`,
	}

	cmd.AddCommand(newAuthLoginCmd(), newAuthLogoutCmd(), newAuthListCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		profile string
		c       settings.Credential
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the remote URL and API key",
		Long: `Store the remote URL and API key for a profile.

Pass --key - to read the key from standard input.

Examples:
  sitetext auth login --url https://abc.supabase.co --key eyJ...
  echo "$KEY" | sitetext auth login --url https://abc.supabase.co --key -
  sitetext auth login --profile staging --url https://staging.example --key ...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Key == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading key: %w", err)
				}
				c.Key = strings.TrimSpace(string(data))
			}
			if c.URL == "" || c.Key == "" {
				return fmt.Errorf("both --url and --key are required")
			}
			if err := settings.Set(profile, &c); err != nil {
				return err
			}
			path, _ := settings.FilePath()
			logSuccess(i18n.T("Credentials for profile %s saved to %s"), profile, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", settings.DefaultProfile, "Credential profile")
	cmd.Flags().StringVar(&c.URL, "url", "", "Remote base URL (e.g. https://abc.supabase.co)")
	cmd.Flags().StringVar(&c.Key, "key", "", "API key, or - to read it from stdin")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	var (
		profile string
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long: `Remove the stored credentials of one profile, or of all profiles.

Examples:
  sitetext auth logout                     Remove the default profile
  sitetext auth logout --profile staging   Remove the staging profile
  sitetext auth logout --all               Remove every profile`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				logSuccess(i18n.T("All stored credentials removed"))
				return nil
			}
			if err := settings.Remove(profile); err != nil {
				return err
			}
			logSuccess(i18n.T("Credentials for profile %s removed"), profile)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", settings.DefaultProfile, "Credential profile")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every profile")

	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored credentials and environment overrides",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "\n%s%s%s\n", colorBlue, i18n.T("Stored Credentials"), colorReset)
			fmt.Fprintln(out, strings.Repeat("─", 60))
			if len(store) == 0 {
				fmt.Fprintf(out, "  %s%s%s\n", colorRed, i18n.T("none"), colorReset)
			}
			for _, name := range store.Profiles() {
				c := store[name]
				fmt.Fprintf(out, "  %-12s %s (key: %s)\n", name, c.URL, settings.MaskKey(c.Key))
			}

			fmt.Fprintf(out, "\n  %s%s%s\n", colorYellow, i18n.T("Environment Variables"), colorReset)
			for _, name := range append(append([]string{}, config.URLEnv...), config.KeyEnv...) {
				v := os.Getenv(name)
				switch {
				case v == "":
					fmt.Fprintf(out, "  %-26s %s%s%s\n", name, colorRed, i18n.T("not set"), colorReset)
				case strings.HasSuffix(name, "_URL"):
					fmt.Fprintf(out, "  %-26s %s%s%s\n", name, colorGreen, v, colorReset)
				default:
					fmt.Fprintf(out, "  %-26s %s%s%s\n", name, colorGreen, settings.MaskKey(v), colorReset)
				}
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
