package cli

import (
	"github.com/spf13/cobra"

	"basehook-cli/internal/fetch"
)

func newQueryCmd(app *App) *cobra.Command {
	view := &viewFlags{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Fetch one page of thread updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, issues, err := view.state(app.settings)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}

			rows := fetch.New()
			req, _ := rows.Begin(st)
			res := fetch.Run(c, req)
			rows.Resolve(res)
			if err := rows.Err(); err != nil {
				return writeErr(cmd, err)
			}

			meta := map[string]any{
				"total":      rows.Total(),
				"totalPages": rows.TotalPages(),
				"page":       st.Page,
				"perPage":    st.PerPage,
				"link":       st.QueryString(),
			}
			if len(issues) > 0 {
				meta["issues"] = issueStrings(issues)
			}
			return writeOut(cmd, app, map[string]any{
				"data": updateRows(rows.Rows()),
				"meta": meta,
			})
		},
	}
	cmd.Flags().AddFlagSet(view.flagSet())
	return cmd
}
