package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"basehook-cli/internal/bulk"
	"basehook-cli/internal/fetch"
	"basehook-cli/internal/query"
)

// Backend is the remote side of the dashboard.
type Backend interface {
	fetch.Fetcher
	bulk.Mutator
}

// Options configure Run. Issues found while decoding the initial view are shown once at
// startup; Theme is light, dark or auto.
type Options struct {
	Backend Backend
	Server  string
	Initial query.State
	Issues  []*query.ValidationError
	Journal bulk.Recorder
	Theme   string
}

func Run(opts Options) error {
	applyColorProfilePreference()
	applyThemePreference(opts.Theme)

	m, err := newAppModel(opts)
	if err != nil {
		return err
	}
	defer m.close()
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
