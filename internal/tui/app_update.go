package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"basehook-cli/internal/bulk"
	"basehook-cli/internal/query"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case spinner.TickMsg:
		if !m.rows.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case rowsMsg:
		return m.handleRows(msg)

	case bulkDoneMsg:
		return m.handleBulkDone(msg)

	case clipboardMsg:
		if msg.err != nil {
			m.showErr(fmt.Errorf("copy link: %w", msg.err))
			return m, nil
		}
		m.minibufferText = "Copied " + msg.link
		return m, nil

	case panicMsg:
		m.showErr(msg.err)
		return m, nil

	case tea.KeyMsg:
		if m.inputMode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m appModel) handleRows(msg rowsMsg) (tea.Model, tea.Cmd) {
	if !m.rows.Resolve(msg.res) {
		// Stale response (the view changed mid-flight).
		m.debugLogf("fetch seq=%d dropped, latest seq=%d", msg.res.Seq, m.rows.Seq())
		return m, nil
	}
	if err := msg.res.Err; err != nil {
		m.debugLogf("fetch seq=%d failed: %v", msg.res.Seq, err)
		m.lastErr = err
	} else {
		m.lastErr = nil
	}
	m.sel.Load(m.rows.RowIDs(), m.rows.Total(), msg.res.State.PerPage)
	m.syncTable()

	// A bulk action can shrink the result so the current page no longer exists.
	if msg.res.Err == nil && m.rows.TotalPages() > 0 && msg.res.State.Page > m.rows.TotalPages() {
		_ = m.store.SetPage(m.rows.TotalPages())
		return m, m.drainChanges()
	}
	return m, nil
}

func (m appModel) handleBulkDone(msg bulkDoneMsg) (tea.Model, tea.Cmd) {
	comp := m.bulk.Complete(msg.out, m.rows)
	if comp.Err != nil {
		m.showErr(fmt.Errorf("%s failed: %w", comp.Op.Action, comp.Err))
		m.syncTable()
		return m, m.refresh()
	}
	m.debugLogf("bulk %s %s: %d updated", comp.Op.Action, comp.Op.ID, comp.Updated)
	m.minibufferText = fmt.Sprintf("%s: %d updated", comp.Op.Action, comp.Updated)
	return m, nil
}

func (m *appModel) showErr(err error) {
	m.lastErr = err
	m.minibufferText = err.Error()
	m.debugLogf("error: %v", err)
}

func (m appModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Errors shown in the minibuffer last until the next key.
	m.minibufferText = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Detail):
		m.showDetail = !m.showDetail
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Left):
		if m.cursorCol > 0 {
			m.cursorCol--
		}
		m.syncColumns()
		return m, nil

	case key.Matches(msg, m.keys.Right):
		if m.cursorCol < len(query.ThreadUpdateColumns.SortableIDs())-1 {
			m.cursorCol++
		}
		m.syncColumns()
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		id, ok := m.cursorRowID()
		if !ok {
			return m, nil
		}
		if err := m.sel.Toggle(id); err != nil {
			m.minibufferText = err.Error()
		}
		m.syncTable()
		return m, nil

	case key.Matches(msg, m.keys.TogglePage):
		err := m.sel.SetPage(!m.sel.SelectedCount().All && m.sel.SelectedCount().N < len(m.rows.RowIDs()))
		if err != nil {
			m.minibufferText = err.Error()
		}
		m.syncTable()
		return m, nil

	case key.Matches(msg, m.keys.SelectAll):
		if err := m.sel.SelectAllMatching(); err != nil {
			m.minibufferText = err.Error()
		}
		m.syncTable()
		return m, nil

	case key.Matches(msg, m.keys.ClearSelection):
		m.sel.Clear()
		m.syncTable()
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		m.store.NextPage(m.rows.TotalPages())
	case key.Matches(msg, m.keys.PrevPage):
		m.store.PrevPage()
	case key.Matches(msg, m.keys.MorePerPage):
		m.stepPerPage(1)
	case key.Matches(msg, m.keys.FewerPerPage):
		m.stepPerPage(-1)
	case key.Matches(msg, m.keys.CycleRange):
		_ = m.store.SetTimeRange(m.store.State().TimeRange.Next())
	case key.Matches(msg, m.keys.CycleSort):
		if err := m.store.ToggleSort(m.focusedColumn()); err != nil {
			m.showErr(err)
		}
	case key.Matches(msg, m.keys.ToggleJoin):
		next := query.JoinOr
		if m.store.State().JoinOperator == query.JoinOr {
			next = query.JoinAnd
		}
		_ = m.store.SetJoinOperator(next)
	case key.Matches(msg, m.keys.RemoveFilter):
		filters := m.store.State().Filters
		if len(filters) == 0 {
			m.minibufferText = "No filters"
			return m, nil
		}
		_ = m.store.RemoveFilter(filters[len(filters)-1].FilterID)
	case key.Matches(msg, m.keys.ClearFilters):
		m.store.ClearFilters()

	case key.Matches(msg, m.keys.AddFilter):
		return m.openInput(inputFilter, "column [variant] operator value")
	case key.Matches(msg, m.keys.OpenLink):
		return m.openInput(inputLink, "paste a link or query string")

	case key.Matches(msg, m.keys.Skip):
		return m.startBulk(bulk.ActionSkip)
	case key.Matches(msg, m.keys.Requeue):
		return m.startBulk(bulk.ActionRequeue)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()

	case key.Matches(msg, m.keys.CopyLink):
		return m, copyLinkCmd(m.store.Link())

	default:
		return m, nil
	}
	m.syncColumns()
	return m, m.drainChanges()
}

func (m *appModel) stepPerPage(dir int) {
	cur := m.store.State().PerPage
	choices := query.PerPageChoices
	idx := slices.Index(choices, cur)
	switch {
	case idx < 0 && dir > 0:
		// Off-list sizes (from a link) step to the next larger choice.
		idx = slices.IndexFunc(choices, func(n int) bool { return n > cur })
	case idx < 0:
		idx = -1
		for i, n := range choices {
			if n < cur {
				idx = i
			}
		}
	default:
		idx += dir
	}
	if idx < 0 || idx >= len(choices) {
		return
	}
	_ = m.store.SetPerPage(choices[idx])
}

func (m appModel) focusedColumn() string {
	ids := query.ThreadUpdateColumns.SortableIDs()
	if m.cursorCol < 0 || m.cursorCol >= len(ids) {
		return ids[0]
	}
	return ids[m.cursorCol]
}

func (m appModel) cursorRowID() (int64, bool) {
	ids := m.rows.RowIDs()
	i := m.table.Cursor()
	if i < 0 || i >= len(ids) {
		return 0, false
	}
	return ids[i], true
}

// startBulk submits action for the current selection. The selection is reset right away;
// the table already shows the optimistic statuses.
func (m appModel) startBulk(action bulk.Action) (tea.Model, tea.Cmd) {
	op, err := m.bulk.Begin(action, m.sel.Snapshot(), m.store.State(), m.rows)
	if err != nil {
		if errors.Is(err, bulk.ErrEmptySelection) {
			m.minibufferText = "Nothing selected"
			return m, nil
		}
		m.showErr(err)
		return m, nil
	}
	count := m.sel.SelectedCount()
	m.sel.Clear()
	m.syncTable()
	m.minibufferText = fmt.Sprintf("%s %s…", action, count)
	m.debugLogf("bulk %s %s scope=%s", action, op.ID, count)
	return m, bulkCmd(m.bulk, m.backend, op)
}

func (m appModel) openInput(mode inputMode, placeholder string) (tea.Model, tea.Cmd) {
	m.inputMode = mode
	m.input.SetValue("")
	m.input.Placeholder = placeholder
	switch mode {
	case inputFilter:
		m.input.Prompt = "Filter: "
	case inputLink:
		m.input.Prompt = "Link: "
	}
	return m, m.input.Focus()
}

func (m appModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		mode := m.inputMode
		m.closeInput()
		if text == "" {
			return m, nil
		}
		switch mode {
		case inputFilter:
			f, err := parseFilterInput(text)
			if err == nil {
				err = m.store.SetFilter(f)
			}
			if err != nil {
				m.showErr(err)
				return m, nil
			}
		case inputLink:
			st, issues := query.ParseLinkWithCatalog(text, query.ThreadUpdateColumns)
			if len(issues) > 0 {
				m.minibufferText = "link: " + joinIssues(issues)
			}
			if err := m.store.Replace(st); err != nil {
				m.showErr(err)
				return m, nil
			}
		}
		m.syncColumns()
		return m, m.drainChanges()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *appModel) closeInput() {
	m.inputMode = inputNone
	m.input.Blur()
	m.input.SetValue("")
}

// parseFilterInput accepts "column [variant] operator value..." or the colon form used by
// --filter. List values are comma separated.
func parseFilterInput(text string) (query.Filter, error) {
	fields := strings.Fields(text)
	if len(fields) < 3 {
		return query.ThreadUpdateColumns.ParseFilterExpr(text)
	}
	if query.Variant(fields[1]).Valid() {
		if len(fields) < 4 {
			return query.Filter{}, &query.ValidationError{Field: "filter", Reason: "want column variant operator value"}
		}
		return query.ThreadUpdateColumns.ParseFilterExpr(fields[0] + ":" + fields[1] + ":" + fields[2] + ":" + strings.Join(fields[3:], " "))
	}
	return query.ThreadUpdateColumns.ParseFilterExpr(fields[0] + ":" + fields[1] + ":" + strings.Join(fields[2:], " "))
}
