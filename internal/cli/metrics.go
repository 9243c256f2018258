package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"basehook-cli/internal/model"
	"basehook-cli/internal/query"
)

func newMetricsCmd(app *App) *cobra.Command {
	var rng string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show thread update counts per status over time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := app.settings.Range
			if cmd.Flags().Changed("range") {
				r = query.TimeRange(rng)
			}
			if !r.Valid() {
				return writeErr(cmd, fmt.Errorf("unknown range %q", rng))
			}
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			points, err := c.Metrics(cmd.Context(), r)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": metricRows(points),
				"meta": map[string]any{"range": string(r), "totals": statusTotals(points)},
			})
		},
	}
	cmd.Flags().StringVar(&rng, "range", "", "Time range (1h|6h|24h|7d|30d|all)")
	return cmd
}

func statusTotals(points []model.MetricPoint) map[string]int {
	out := make(map[string]int, len(model.Statuses))
	for _, s := range model.Statuses {
		out[string(s)] = 0
	}
	for _, p := range points {
		out[string(p.Status)] += p.Count
	}
	return out
}
