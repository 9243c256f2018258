package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newJournalCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recent bulk actions and their outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := app.openJournal(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if j == nil {
				return writeErr(cmd, errors.New("journal is disabled (set journal in config or BASEHOOK_JOURNAL)"))
			}
			defer j.Close()

			entries, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": journalRows(entries),
				"meta": map[string]any{"path": j.Path(), "count": len(entries)},
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries")
	return cmd
}
