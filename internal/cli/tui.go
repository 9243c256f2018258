package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"basehook-cli/internal/tui"
)

func runTUI(cmd *cobra.Command, app *App, view *viewFlags) error {
	st, issues, err := view.state(app.settings)
	if err != nil {
		return writeErr(cmd, err)
	}
	c, err := app.client()
	if err != nil {
		return writeErr(cmd, err)
	}
	opts := tui.Options{
		Backend: c,
		Server:  app.settings.Server,
		Initial: st,
		Issues:  issues,
		Theme:   app.settings.Theme,
	}
	j, err := app.openJournal(cmd.Context())
	if err != nil {
		return writeErr(cmd, fmt.Errorf("open journal: %w", err))
	}
	if j != nil {
		defer j.Close()
		opts.Journal = j
	}
	return tui.Run(opts)
}
