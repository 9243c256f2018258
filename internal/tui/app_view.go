package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"basehook-cli/internal/model"
	"basehook-cli/internal/query"
)

// Table column order; sortKeys maps each to its catalog column (empty: not sortable).
var (
	columnTitles = []string{"", "ID", "Webhook", "Thread", "Rev", "Status", "Received"}
	sortKeys     = []string{"", "id", "webhook_name", "thread_id", "revision_number", "status", "timestamp"}
)

const (
	headerLines = 4
	timeLayout  = "2006-01-02 15:04:05"
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorMuted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(false)
	return s
}

// tableColumns sizes the columns for width and marks sort keys and the focused column.
func tableColumns(width int, st query.State, cursorCol int) []table.Column {
	fixed := []int{3, 8, 0, 0, 6, 9, len(timeLayout)}
	used := 0
	for _, w := range fixed {
		used += w + 2 // cell padding
	}
	flex := (width - used - 4) / 2
	if flex < 10 {
		flex = 10
	}
	focused := ""
	if ids := query.ThreadUpdateColumns.SortableIDs(); cursorCol >= 0 && cursorCol < len(ids) {
		focused = ids[cursorCol]
	}

	cols := make([]table.Column, len(columnTitles))
	for i, title := range columnTitles {
		w := fixed[i]
		if w == 0 {
			w = flex
		}
		if id := sortKeys[i]; id != "" {
			if k, ok := st.SortFor(id); ok {
				if k.Desc {
					title += " ▼"
				} else {
					title += " ▲"
				}
			}
			if id == focused {
				title = "[" + title + "]"
			}
		}
		cols[i] = table.Column{Title: title, Width: w}
	}
	return cols
}

func (m *appModel) syncColumns() {
	m.table.SetColumns(tableColumns(m.width, m.store.State(), m.cursorCol))
}

// syncTable rebuilds the table rows from the row cache and the selection.
func (m *appModel) syncTable() {
	rows := m.rows.Rows()
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		mark := "[ ]"
		if m.sel.IsRowSelected(r.ID) {
			mark = "[x]"
		}
		out = append(out, table.Row{
			mark,
			strconv.FormatInt(r.ID, 10),
			r.WebhookName,
			r.ThreadID,
			strconv.FormatFloat(r.RevisionNumber, 'f', -1, 64),
			r.Status.WireValue(),
			r.Time().Local().Format(timeLayout),
		})
	}
	cursor := m.table.Cursor()
	m.table.SetRows(out)
	if cursor >= len(out) {
		cursor = len(out) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	m.table.SetCursor(cursor)
}

func (m *appModel) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.help.Width = m.width
	m.input.Width = m.width - 12

	helpLines := 1
	if m.showHelp {
		helpLines = lipgloss.Height(m.help.View(m.keys))
	}
	avail := m.height - headerLines - 2 - helpLines
	if m.showDetail {
		avail /= 2
	}
	if avail < 3 {
		avail = 3
	}
	m.table.SetHeight(avail)
	m.table.SetWidth(m.width)
	m.syncColumns()
}

func (m appModel) View() string {
	if m.width <= 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	if m.showDetail {
		b.WriteString(m.detailView())
		b.WriteString("\n")
	}
	b.WriteString(m.minibufferView())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m appModel) headerView() string {
	st := m.store.State()
	fit := func(s string) string { return ansi.Truncate(s, m.width, "…") }

	title := styleHeaderBar().Render("basehook") + " " + styleMuted().Render(m.server)
	if sum := pageStatusSummary(m.rows.Rows()); sum != "" {
		title += "  " + sum
	}

	pages := m.rows.TotalPages()
	if pages == 0 {
		pages = 1
	}
	parts := []string{
		fmt.Sprintf("page %d/%d", st.Page, pages),
		fmt.Sprintf("total %d", m.rows.Total()),
		fmt.Sprintf("%d per page", st.PerPage),
		"range " + string(st.TimeRange),
		"join " + string(st.JoinOperator),
	}
	if c := m.sel.SelectedCount(); c.All || c.N > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorMarked).Bold(true).Render("selected "+c.String()))
	}
	if n := len(m.bulk.Pending()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d pending", n))
	}
	status := strings.Join(parts, " · ")
	if m.rows.Loading() {
		status = m.spinner.View() + " " + status
	}
	if m.lastErr != nil {
		status += "  " + styleError().Render(m.lastErr.Error())
	}

	filters := "no filters"
	if len(st.Filters) > 0 {
		names := make([]string, 0, len(st.Filters))
		for _, f := range st.Filters {
			names = append(names, f.String())
		}
		filters = "filters: " + strings.Join(names, " "+string(st.JoinOperator)+" ")
	}

	return strings.Join([]string{
		fit(title),
		fit(status),
		fit(styleMuted().Render(filters)),
		fit(styleMuted().Render("?" + m.store.Link())),
	}, "\n")
}

func (m appModel) detailView() string {
	id, ok := m.cursorRowID()
	if !ok {
		return styleMuted().Render("No row")
	}
	row, ok := m.rows.Row(id)
	if !ok {
		return ""
	}
	out := renderMarkdown(updateMarkdown(row), m.width-2)
	height := m.height - headerLines - m.table.Height() - 4
	if height < 3 {
		height = 3
	}
	lines := strings.Split(out, "\n")
	if len(lines) > height {
		lines = append(lines[:height-1], styleMuted().Render("…"))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) minibufferView() string {
	if m.inputMode != inputNone {
		return m.input.View()
	}
	if m.minibufferText == "" {
		return ""
	}
	return ansi.Truncate(m.minibufferText, m.width, "…")
}

// pageStatusSummary counts the loaded rows per status, e.g. "PENDING 3  ERROR 1".
func pageStatusSummary(rows []model.ThreadUpdate) string {
	counts := map[model.Status]int{}
	for _, r := range rows {
		counts[r.Status]++
	}
	var parts []string
	for _, s := range model.Statuses {
		if n := counts[s]; n > 0 {
			parts = append(parts, styleStatus(s).Render(fmt.Sprintf("%s %d", s.WireValue(), n)))
		}
	}
	return strings.Join(parts, "  ")
}
