package cli

import (
	"github.com/spf13/cobra"
)

func newLinkCmd(app *App) *cobra.Command {
	view := &viewFlags{}
	cmd := &cobra.Command{
		Use:   "link [LINK]",
		Short: "Print the canonical shareable query string for a view",
		Long: "Normalizes a view link (or the view described by flags) into its canonical query string.\n" +
			"Invalid parameters fall back to their defaults and are listed under meta.issues.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if view.fs.Changed("view") {
					return writeErr(cmd, errConflictingFlags("LINK", "--view"))
				}
				view.link = args[0]
			}
			st, issues, err := view.state(app.settings)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"link": st.QueryString()},
				"meta": map[string]any{"issues": issueStrings(issues)},
			})
		},
	}
	cmd.Flags().AddFlagSet(view.flagSet())
	return cmd
}
