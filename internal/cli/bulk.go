package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"basehook-cli/internal/bulk"
	"basehook-cli/internal/selection"
)

func newBulkCmd(app *App, action, short string) *cobra.Command {
	view := &viewFlags{}
	var (
		ids         []int64
		allMatching bool
	)
	cmd := &cobra.Command{
		Use:   action,
		Short: short,
		Long: short + ".\n\n" +
			"With --ids only the listed rows change. With --all-matching the server applies the\n" +
			"change to every row matching the view filters (--filter/--join/--range or --view).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bulk.ParseAction(action)
			if err != nil {
				return writeErr(cmd, err)
			}
			switch {
			case allMatching && len(ids) > 0:
				return writeErr(cmd, errConflictingFlags("--ids", "--all-matching"))
			case !allMatching && len(ids) == 0:
				return writeErr(cmd, errMissingFlag("--ids", "--all-matching"))
			}

			st, issues, err := view.state(app.settings)
			if err != nil {
				return writeErr(cmd, err)
			}
			if allMatching && len(issues) > 0 {
				// Never widen an all-matching update because part of the view was dropped.
				return writeErr(cmd, fmt.Errorf("--view has invalid parameters: %s", issues[0]))
			}
			sel := selection.State{Mode: selection.ModePartialPage, IDs: ids}
			if allMatching {
				sel = selection.State{Mode: selection.ModeAllMatching}
			}

			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			j, err := app.openJournal(cmd.Context())
			if err != nil {
				return writeErr(cmd, fmt.Errorf("open journal: %w", err))
			}
			opts := []bulk.Option{bulk.WithLogf(func(format string, args ...any) {
				fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
			})}
			if j != nil {
				defer j.Close()
				opts = append(opts, bulk.WithJournal(j))
			}

			coord := bulk.NewCoordinator(opts...)
			op, err := coord.Begin(a, sel, st, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := coord.Run(cmd.Context(), c, op)
			done := coord.Complete(out, nil)
			if done.Err != nil {
				return writeErr(cmd, done.Err)
			}

			scope := "ids"
			if op.Request.AllMatching {
				scope = "filters"
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"updated": done.Updated,
					"action":  string(op.Action),
					"status":  string(op.Status),
					"scope":   scope,
					"opId":    op.ID,
				},
			})
		},
	}
	cmd.Flags().Int64SliceVar(&ids, "ids", nil, "Row ids to change (comma-separated)")
	cmd.Flags().BoolVar(&allMatching, "all-matching", false, "Change every row matching the view filters")
	cmd.Flags().AddFlagSet(view.flagSet())
	return cmd
}
