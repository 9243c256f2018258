package tui

import (
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"basehook-cli/internal/bulk"
	"basehook-cli/internal/fetch"
	"basehook-cli/internal/query"
	"basehook-cli/internal/selection"
)

// appModel is copied by value on every Update; the engine parts are pointers so all copies
// share them.
type appModel struct {
	backend Backend
	server  string

	store *query.Store
	loc   *query.MemoryLocation
	// changes collects states published by the store until Update drains them.
	changes     *[]query.State
	unsubscribe func()

	rows *fetch.Coordinator
	sel  *selection.Controller
	bulk *bulk.Coordinator

	table   table.Model
	spinner spinner.Model
	help    help.Model
	input   textinput.Model
	keys    keyMap

	inputMode inputMode
	// cursorCol indexes query.ThreadUpdateColumns.SortableIDs().
	cursorCol  int
	showDetail bool
	showHelp   bool

	width  int
	height int

	minibufferText string
	lastErr        error

	debugLog  *log.Logger
	debugFile *os.File
}

func newAppModel(opts Options) (appModel, error) {
	loc := &query.MemoryLocation{}
	st, err := query.NewStore(opts.Initial,
		query.WithCatalog(query.ThreadUpdateColumns),
		query.WithLocation(loc),
	)
	if err != nil {
		return appModel{}, err
	}

	m := appModel{
		backend: opts.Backend,
		server:  opts.Server,
		store:   st,
		loc:     loc,
		changes: &[]query.State{},
		rows:    fetch.New(),
		sel:     selection.New(),
		keys:    newKeyMap(),
		help:    help.New(),
	}
	m.debugLog, m.debugFile = openDebugLog()
	queue := m.changes
	m.unsubscribe = st.Subscribe(func(s query.State) { *queue = append(*queue, s) })

	logger := m.debugLog
	bulkOpts := []bulk.Option{bulk.WithLogf(func(format string, args ...any) {
		if logger != nil {
			logger.Printf(format, args...)
		}
	})}
	if opts.Journal != nil {
		bulkOpts = append(bulkOpts, bulk.WithJournal(opts.Journal))
	}
	m.bulk = bulk.NewCoordinator(bulkOpts...)

	m.table = table.New(
		table.WithColumns(tableColumns(80, m.store.State(), 0)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	m.table.SetStyles(tableStyles())

	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))

	m.input = textinput.New()
	m.input.Prompt = ""
	m.input.CharLimit = 512

	if len(opts.Issues) > 0 {
		m.minibufferText = "link: " + joinIssues(opts.Issues)
	}
	return m, nil
}

func (m appModel) close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if m.debugFile != nil {
		_ = m.debugFile.Close()
	}
}

func (m appModel) Init() tea.Cmd {
	req, ok := m.rows.Begin(m.store.State())
	if !ok {
		return nil
	}
	m.debugLogf("fetch seq=%d link=%s", req.Seq, m.loc.RawQuery)
	return tea.Batch(fetchCmd(m.backend, req), m.spinner.Tick)
}

// drainChanges issues a fetch for the latest published state, if any. The selection is
// cleared because it only refers to the rows of the old view.
func (m *appModel) drainChanges() tea.Cmd {
	if len(*m.changes) == 0 {
		return nil
	}
	latest := (*m.changes)[len(*m.changes)-1]
	*m.changes = (*m.changes)[:0]
	m.sel.Clear()
	req, ok := m.rows.Begin(latest)
	if !ok {
		return nil
	}
	m.debugLogf("fetch seq=%d link=%s", req.Seq, m.loc.RawQuery)
	return tea.Batch(fetchCmd(m.backend, req), m.spinner.Tick)
}

func (m *appModel) refresh() tea.Cmd {
	req := m.rows.Refresh(m.store.State())
	m.debugLogf("refresh seq=%d link=%s", req.Seq, m.loc.RawQuery)
	return tea.Batch(fetchCmd(m.backend, req), m.spinner.Tick)
}

func joinIssues(issues []*query.ValidationError) string {
	msgs := make([]string, 0, len(issues))
	for _, is := range issues {
		msgs = append(msgs, is.Error())
	}
	return strings.Join(msgs, "; ")
}
