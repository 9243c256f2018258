package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"basehook-cli/internal/api"
	"basehook-cli/internal/model"
	"basehook-cli/internal/query"
)

func newStatusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize the server: row count, webhooks and recent status totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}

			var (
				page   api.QueryResponse
				hooks  []model.Webhook
				points []model.MetricPoint
				g, ctx = errgroup.WithContext(cmd.Context())
			)
			g.Go(func() error {
				var err error
				page, err = c.Query(ctx, api.QueryRequest{Page: 1, PerPage: 1})
				return err
			})
			g.Go(func() error {
				var err error
				hooks, err = c.ListWebhooks(ctx)
				return err
			})
			g.Go(func() error {
				var err error
				points, err = c.Metrics(ctx, query.Range24h)
				return err
			})
			if err := g.Wait(); err != nil {
				return writeErr(cmd, err)
			}

			journal := "off"
			if app.settings.JournalEnabled() {
				journal = app.settings.JournalPath
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"server":   c.BaseURL,
					"total":    page.Total,
					"webhooks": len(hooks),
					"last24h":  statusTotals(points),
					"journal":  journal,
				},
			})
		},
	}
	return cmd
}
