package tui

import (
	"basehook-cli/internal/bulk"
	"basehook-cli/internal/fetch"
)

type rowsMsg struct {
	res fetch.Result
}

type bulkDoneMsg struct {
	out bulk.Outcome
}

type clipboardMsg struct {
	link string
	err  error
}

// panicMsg carries a panic recovered inside a command.
type panicMsg struct {
	err error
}

// inputMode is what the minibuffer input is collecting.
type inputMode int

const (
	inputNone inputMode = iota
	inputFilter
	inputLink
)
