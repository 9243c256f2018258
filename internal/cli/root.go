package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"basehook-cli/internal/api"
	"basehook-cli/internal/config"
	"basehook-cli/internal/format"
	"basehook-cli/internal/journal"
)

type App struct {
	Server     string
	ConfigDir  string
	PrettyJSON bool
	Format     string

	settings config.Settings
}

func NewRootCmd() *cobra.Command {
	app := &App{}
	view := &viewFlags{}

	cmd := &cobra.Command{
		Use:          "basehook",
		Short:        "Browse and bulk-manage basehook thread updates",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive dashboard
  basehook

  # Open a shared view
  basehook --view 'https://dash.example.com/?page=2&perPage=20&range=24h'

  # Scriptable commands
  basehook query --filter status:in:ERROR --sort timestamp:desc

  # Re-queue everything that failed in the last hour
  basehook requeue --all-matching --filter status:in:ERROR --range 1h
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			return runTUI(cmd, app, view)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.resolveSettings(cmd)
	}

	cmd.PersistentFlags().StringVar(&app.Server, "server", "", "basehook server URL (default from config, BASEHOOK_SERVER, or "+config.DefaultServer+")")
	cmd.PersistentFlags().StringVar(&app.ConfigDir, "config-dir", "", "Config directory (default ~/.basehook; env BASEHOOK_CONFIG_DIR)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("BASEHOOK_FORMAT", "json"), "Output format (json|table)")

	cmd.Flags().AddFlagSet(view.flagSet())

	cmd.AddCommand(newQueryCmd(app))
	cmd.AddCommand(newLinkCmd(app))
	cmd.AddCommand(newBulkCmd(app, "skip", "Mark the selected thread updates as skipped"))
	cmd.AddCommand(newBulkCmd(app, "requeue", "Put the selected thread updates back to pending"))
	cmd.AddCommand(newWebhooksCmd(app))
	cmd.AddCommand(newMetricsCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newJournalCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// resolveSettings layers config file, .env and environment, then applies --server.
func (app *App) resolveSettings(cmd *cobra.Command) error {
	if app.ConfigDir != "" {
		if err := os.Setenv(config.EnvConfigDir, app.ConfigDir); err != nil {
			return err
		}
	}
	if err := config.LoadDotEnv(".env"); err != nil {
		return writeErr(cmd, fmt.Errorf(".env: %w", err))
	}
	if !cmd.Flags().Changed("format") {
		app.Format = envOr("BASEHOOK_FORMAT", app.Format)
	}
	cfg, err := config.Load()
	if err != nil {
		return writeErr(cmd, err)
	}
	s, err := config.Resolve(cfg, os.Getenv)
	if err != nil {
		return writeErr(cmd, err)
	}
	if v := strings.TrimSpace(app.Server); v != "" {
		s.Server = v
	}
	app.settings = s
	return nil
}

func (app *App) client() (*api.Client, error) {
	return api.NewClient(app.settings.Server)
}

// openJournal returns nil when the journal is disabled.
func (app *App) openJournal(ctx context.Context) (*journal.Journal, error) {
	if !app.settings.JournalEnabled() {
		return nil, nil
	}
	return journal.Open(ctx, app.settings.JournalPath)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
