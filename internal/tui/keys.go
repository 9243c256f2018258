package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down       key.Binding
	Left, Right    key.Binding
	Toggle         key.Binding
	TogglePage     key.Binding
	SelectAll      key.Binding
	ClearSelection key.Binding
	NextPage       key.Binding
	PrevPage       key.Binding
	MorePerPage    key.Binding
	FewerPerPage   key.Binding
	CycleRange     key.Binding
	CycleSort      key.Binding
	AddFilter      key.Binding
	RemoveFilter   key.Binding
	ClearFilters   key.Binding
	ToggleJoin     key.Binding
	Skip           key.Binding
	Requeue        key.Binding
	Refresh        key.Binding
	CopyLink       key.Binding
	OpenLink       key.Binding
	Detail         key.Binding
	Help           key.Binding
	Quit           key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:             key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:           key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Left:           key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "focus column")),
		Right:          key.NewBinding(key.WithKeys("right", "l")),
		Toggle:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select row")),
		TogglePage:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select page")),
		SelectAll:      key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "select all matching")),
		ClearSelection: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear selection")),
		NextPage:       key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n/p", "next/prev page")),
		PrevPage:       key.NewBinding(key.WithKeys("p", "pgup")),
		MorePerPage:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "page size")),
		FewerPerPage:   key.NewBinding(key.WithKeys("-")),
		CycleRange:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "time range")),
		CycleSort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
		AddFilter:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "add filter")),
		RemoveFilter:   key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "remove last filter")),
		ClearFilters:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters")),
		ToggleJoin:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "and/or")),
		Skip:           key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "skip")),
		Requeue:        key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "requeue")),
		Refresh:        key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
		CopyLink:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy link")),
		OpenLink:       key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "open link")),
		Detail:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Help:           key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.SelectAll, k.Skip, k.Requeue, k.AddFilter, k.NextPage, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.NextPage, k.MorePerPage, k.Detail},
		{k.Toggle, k.TogglePage, k.SelectAll, k.ClearSelection, k.Skip, k.Requeue},
		{k.AddFilter, k.RemoveFilter, k.ClearFilters, k.ToggleJoin, k.CycleRange, k.CycleSort},
		{k.Refresh, k.CopyLink, k.OpenLink, k.Help, k.Quit},
	}
}
