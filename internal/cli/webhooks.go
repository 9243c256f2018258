package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"basehook-cli/internal/model"
)

func newWebhooksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhooks",
		Short: "Manage webhook definitions on the server",
	}
	cmd.AddCommand(newWebhooksListCmd(app))
	cmd.AddCommand(newWebhooksCreateCmd(app))
	cmd.AddCommand(newWebhooksUpdateCmd(app))
	return cmd
}

func newWebhooksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List webhooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			hooks, err := c.ListWebhooks(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": webhookRows(hooks),
				"meta": map[string]any{"count": len(hooks)},
			})
		},
	}
}

// splitPath turns "issue.id" into ["issue", "id"].
func splitPath(s string) []string {
	var out []string
	for _, p := range strings.Split(strings.TrimSpace(s), ".") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newWebhooksCreateCmd(app *App) *cobra.Command {
	var threadPath, revPath string
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(threadPath) == "" {
				return writeErr(cmd, errMissingFlag("--thread-id-path"))
			}
			if strings.TrimSpace(revPath) == "" {
				return writeErr(cmd, errMissingFlag("--revision-path"))
			}
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			w, err := c.CreateWebhook(cmd.Context(), model.Webhook{
				Name:               strings.TrimSpace(args[0]),
				ThreadIDPath:       splitPath(threadPath),
				RevisionNumberPath: splitPath(revPath),
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": w})
		},
	}
	cmd.Flags().StringVar(&threadPath, "thread-id-path", "", "Dotted path to the thread id in the payload (e.g. issue.id)")
	cmd.Flags().StringVar(&revPath, "revision-path", "", "Dotted path to the revision number in the payload")
	return cmd
}

func newWebhooksUpdateCmd(app *App) *cobra.Command {
	var threadPath, revPath string
	cmd := &cobra.Command{
		Use:   "update NAME",
		Short: "Change the payload paths of a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if !cmd.Flags().Changed("thread-id-path") && !cmd.Flags().Changed("revision-path") {
				return writeErr(cmd, errMissingFlag("--thread-id-path", "--revision-path"))
			}
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}

			// PUT replaces the whole definition; start from the current one.
			hooks, err := c.ListWebhooks(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			w := model.Webhook{Name: name}
			for _, h := range hooks {
				if h.Name == name {
					w = h
					break
				}
			}
			if cmd.Flags().Changed("thread-id-path") {
				w.ThreadIDPath = splitPath(threadPath)
			}
			if cmd.Flags().Changed("revision-path") {
				w.RevisionNumberPath = splitPath(revPath)
			}
			out, err := c.UpdateWebhook(cmd.Context(), name, w)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	cmd.Flags().StringVar(&threadPath, "thread-id-path", "", "Dotted path to the thread id in the payload")
	cmd.Flags().StringVar(&revPath, "revision-path", "", "Dotted path to the revision number in the payload")
	return cmd
}
