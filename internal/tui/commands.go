package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"basehook-cli/internal/bulk"
	"basehook-cli/internal/fetch"
)

// safeCmd turns a panic inside fn into the message built by onPanic, so a bad response
// cannot take down the program and the waiting state still gets resolved.
func safeCmd(what string, fn func() tea.Msg, onPanic func(error) tea.Msg) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("%s: panic: %v", what, r)
				if onPanic == nil {
					msg = panicMsg{err: err}
					return
				}
				msg = onPanic(err)
			}
		}()
		return fn()
	}
}

func fetchCmd(f fetch.Fetcher, req fetch.Request) tea.Cmd {
	return safeCmd("fetch",
		func() tea.Msg { return rowsMsg{res: fetch.Run(f, req)} },
		func(err error) tea.Msg {
			return rowsMsg{res: fetch.Result{Seq: req.Seq, State: req.State, Err: err}}
		},
	)
}

func bulkCmd(c *bulk.Coordinator, m bulk.Mutator, op bulk.Op) tea.Cmd {
	return safeCmd("bulk "+string(op.Action),
		func() tea.Msg { return bulkDoneMsg{out: c.Run(context.Background(), m, op)} },
		func(err error) tea.Msg { return bulkDoneMsg{out: bulk.Outcome{OpID: op.ID, Err: err}} },
	)
}

func copyLinkCmd(link string) tea.Cmd {
	return safeCmd("copy link",
		func() tea.Msg { return clipboardMsg{link: link, err: copyToClipboard(link)} },
		nil,
	)
}
