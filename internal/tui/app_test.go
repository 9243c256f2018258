package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"basehook-cli/internal/api"
	"basehook-cli/internal/fetch"
	"basehook-cli/internal/model"
	"basehook-cli/internal/query"
	"basehook-cli/internal/selection"
)

type fakeBackend struct {
	mu      sync.Mutex
	rows    []model.ThreadUpdate
	queries []api.QueryRequest
	updates []api.UpdateStatusRequest
	failUpd error
}

func newFakeBackend(n int) *fakeBackend {
	b := &fakeBackend{}
	for i := 1; i <= n; i++ {
		b.rows = append(b.rows, model.ThreadUpdate{
			ID:          int64(i),
			WebhookName: "orders",
			ThreadID:    "t-" + strings.Repeat("x", i%3+1),
			Timestamp:   1_700_000_000 + float64(i),
			Status:      model.StatusError,
		})
	}
	return b
}

func (b *fakeBackend) Query(_ context.Context, req api.QueryRequest) (api.QueryResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, req)
	start := (req.Page - 1) * req.PerPage
	end := min(start+req.PerPage, len(b.rows))
	var page []model.ThreadUpdate
	if start < len(b.rows) {
		page = append(page, b.rows[start:end]...)
	}
	return api.QueryResponse{Updates: page, Total: len(b.rows)}, nil
}

func (b *fakeBackend) UpdateStatus(_ context.Context, req api.UpdateStatusRequest) (api.UpdateStatusResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, req)
	if b.failUpd != nil {
		return api.UpdateStatusResponse{}, b.failUpd
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		return api.UpdateStatusResponse{}, err
	}
	n := 0
	for i := range b.rows {
		if req.AllMatching || containsID(req.IDs, b.rows[i].ID) {
			b.rows[i].Status = status
			n++
		}
	}
	return api.UpdateStatusResponse{Updated: n}, nil
}

func containsID(ids []int64, id int64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func newTestModel(t *testing.T, b *fakeBackend) appModel {
	t.Helper()
	m, err := newAppModel(Options{Backend: b, Server: "http://test", Initial: query.DefaultState()})
	if err != nil {
		t.Fatalf("newAppModel: %v", err)
	}
	t.Cleanup(m.close)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if cmd := m.Init(); cmd == nil {
		t.Fatalf("expected Init to issue a fetch")
	}
	return resolveLatest(t, m, b)
}

func update(t *testing.T, m appModel, msg tea.Msg) appModel {
	t.Helper()
	mm, _ := m.Update(msg)
	return mm.(appModel)
}

// resolveLatest answers the most recently issued fetch.
func resolveLatest(t *testing.T, m appModel, f fetch.Fetcher) appModel {
	t.Helper()
	res := fetch.Run(f, fetch.Request{Seq: m.rows.Seq(), State: m.store.State()})
	return update(t, m, rowsMsg{res: res})
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestAppModel_StaleRowsAreIgnored(t *testing.T) {
	b := newFakeBackend(25)
	m := newTestModel(t, b)
	if got := m.rows.RowIDs(); len(got) != 10 || got[0] != 1 {
		t.Fatalf("expected page 1 loaded, got %v", got)
	}

	staleReq := fetch.Request{Seq: m.rows.Seq(), State: m.store.State()}
	m = update(t, m, keyRunes("n"))
	if m.store.State().Page != 2 || !m.rows.Loading() {
		t.Fatalf("expected page 2 request in flight, page=%d loading=%v", m.store.State().Page, m.rows.Loading())
	}

	m = update(t, m, rowsMsg{res: fetch.Run(b, staleReq)})
	if !m.rows.Loading() {
		t.Fatalf("stale response must not resolve the pending request")
	}
	if got := m.rows.RowIDs(); got[0] != 1 {
		t.Fatalf("stale response replaced rows: %v", got)
	}

	m = resolveLatest(t, m, b)
	if got := m.rows.RowIDs(); got[0] != 11 {
		t.Fatalf("expected page 2 rows, got %v", got)
	}
	if !strings.Contains(m.loc.RawQuery, "page=2") {
		t.Fatalf("expected link to follow the page, got %q", m.loc.RawQuery)
	}
}

func TestAppModel_SkipAllMatching(t *testing.T) {
	b := newFakeBackend(25)
	m := newTestModel(t, b)

	m = update(t, m, keyRunes("a"))
	if m.sel.Mode() != selection.ModeFullPage {
		t.Fatalf("expected full page selection, got %s", m.sel.Mode())
	}
	m = update(t, m, keyRunes("A"))
	if got := m.sel.SelectedCount().String(); got != "all 25" {
		t.Fatalf("expected all 25 selected, got %q", got)
	}
	if !strings.Contains(m.View(), "selected all 25") {
		t.Fatalf("expected header to show the selection count")
	}

	mm, cmd := m.Update(keyRunes("S"))
	m = mm.(appModel)
	if cmd == nil {
		t.Fatalf("expected a bulk command")
	}
	if m.sel.Mode() != selection.ModeNone {
		t.Fatalf("expected selection reset right after submit, got %s", m.sel.Mode())
	}
	for _, r := range m.rows.Rows() {
		if r.Status != model.StatusSkipped {
			t.Fatalf("expected optimistic skip on row %d, got %s", r.ID, r.Status)
		}
	}
	if len(m.bulk.Pending()) != 1 {
		t.Fatalf("expected one pending op")
	}

	m = update(t, m, cmd())
	if len(m.bulk.Pending()) != 0 {
		t.Fatalf("expected op to complete")
	}
	if m.minibufferText != "skip: 25 updated" {
		t.Fatalf("unexpected minibuffer %q", m.minibufferText)
	}
	want := []api.UpdateStatusRequest{{Status: "SKIPPED", AllMatching: true}}
	if diff := cmp.Diff(want, b.updates); diff != "" {
		t.Fatalf("update request mismatch (-want +got):\n%s", diff)
	}
}

func TestAppModel_FailedBulkRollsBackAndRefetches(t *testing.T) {
	b := newFakeBackend(5)
	b.failUpd = errors.New("boom")
	m := newTestModel(t, b)

	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !m.sel.IsRowSelected(1) {
		t.Fatalf("expected row 1 selected")
	}
	mm, cmd := m.Update(keyRunes("R"))
	m = mm.(appModel)
	if r, _ := m.rows.Row(1); r.Status != model.StatusPending {
		t.Fatalf("expected optimistic requeue, got %s", r.Status)
	}

	mm, cmd = m.Update(cmd())
	m = mm.(appModel)
	if r, _ := m.rows.Row(1); r.Status != model.StatusError {
		t.Fatalf("expected rollback to ERROR, got %s", r.Status)
	}
	if m.lastErr == nil || !strings.Contains(m.lastErr.Error(), "boom") {
		t.Fatalf("expected error surfaced, got %v", m.lastErr)
	}
	if cmd == nil || !m.rows.Loading() {
		t.Fatalf("expected a forced refetch")
	}
}

func TestAppModel_FilterResetsPage(t *testing.T) {
	b := newFakeBackend(25)
	m := newTestModel(t, b)
	m = update(t, m, keyRunes("n"))
	m = resolveLatest(t, m, b)
	if m.store.State().Page != 2 {
		t.Fatalf("expected page 2")
	}

	m = update(t, m, keyRunes("f"))
	if m.inputMode != inputFilter {
		t.Fatalf("expected filter input")
	}
	m = update(t, m, keyRunes("status in ERROR, PENDING"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	st := m.store.State()
	if st.Page != 1 {
		t.Fatalf("expected page reset, got %d", st.Page)
	}
	if len(st.Filters) != 1 {
		t.Fatalf("expected one filter, got %v", st.Filters)
	}
	f := st.Filters[0]
	if f.ColumnID != "status" || f.Variant != query.VariantMultiSelect || f.Operator != query.OpIn {
		t.Fatalf("unexpected filter %+v", f)
	}
	if diff := cmp.Diff([]string{"ERROR", "PENDING"}, f.Value); diff != "" {
		t.Fatalf("filter value mismatch (-want +got):\n%s", diff)
	}
	if !m.rows.Loading() {
		t.Fatalf("expected a fetch for the filtered view")
	}
}

func TestAppModel_InvalidFilterKeepsState(t *testing.T) {
	b := newFakeBackend(3)
	m := newTestModel(t, b)
	before := m.loc.Writes

	m = update(t, m, keyRunes("f"))
	m = update(t, m, keyRunes("status gt ERROR"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(m.store.State().Filters) != 0 {
		t.Fatalf("invalid filter must not be stored")
	}
	if m.loc.Writes != before {
		t.Fatalf("invalid filter must not write the link")
	}
	if m.lastErr == nil {
		t.Fatalf("expected validation error")
	}
}

func TestAppModel_PerPageStepsAndResetsPage(t *testing.T) {
	b := newFakeBackend(60)
	m := newTestModel(t, b)
	m = update(t, m, keyRunes("n"))
	m = resolveLatest(t, m, b)

	m = update(t, m, keyRunes("+"))
	st := m.store.State()
	if st.PerPage != 20 || st.Page != 1 {
		t.Fatalf("expected perPage 20 on page 1, got %d/%d", st.PerPage, st.Page)
	}
	m = update(t, m, keyRunes("-"))
	m = update(t, m, keyRunes("-"))
	if got := m.store.State().PerPage; got != 10 {
		t.Fatalf("expected perPage to stop at 10, got %d", got)
	}
}

func TestAppModel_SortTogglesFocusedColumn(t *testing.T) {
	b := newFakeBackend(3)
	m := newTestModel(t, b)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m = update(t, m, keyRunes("s"))
	m = update(t, m, keyRunes("s"))
	want := []query.Sort{{ColumnID: "webhook_name", Desc: true}}
	if diff := cmp.Diff(want, m.store.State().Sort); diff != "" {
		t.Fatalf("sort mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFilterInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		col  string
		v    query.Variant
		op   query.Operator
		vals []string
	}{
		{"webhook_name iLike ord", "webhook_name", query.VariantText, query.OpILike, []string{"ord"}},
		{"revision_number range between 1, 5", "revision_number", query.VariantRange, query.OpBetween, []string{"1", "5"}},
		{"status:select:ne:SKIPPED", "status", query.VariantSelect, query.OpNe, []string{"SKIPPED"}},
		{"thread_id eq a:b", "thread_id", query.VariantText, query.OpEq, []string{"a:b"}},
	}
	for _, tc := range cases {
		f, err := parseFilterInput(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if f.ColumnID != tc.col || f.Variant != tc.v || f.Operator != tc.op {
			t.Fatalf("%q: got %s %s %s", tc.in, f.ColumnID, f.Variant, f.Operator)
		}
		if diff := cmp.Diff(tc.vals, f.Value); diff != "" {
			t.Fatalf("%q: value mismatch (-want +got):\n%s", tc.in, diff)
		}
	}

	if _, err := parseFilterInput("status"); err == nil {
		t.Fatalf("expected error for incomplete input")
	}
}

func TestUpdateMarkdownIncludesContentAndTraceback(t *testing.T) {
	t.Parallel()

	tb := "Traceback (most recent call last):\n  boom"
	md := updateMarkdown(model.ThreadUpdate{
		ID:          7,
		WebhookName: "orders",
		ThreadID:    "abc",
		Content:     []byte(`{"a":1}`),
		Status:      model.StatusError,
		Traceback:   &tb,
	})
	for _, want := range []string{"## Update 7", "```json", `"a": 1`, "```text", "boom", "ERROR"} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in:\n%s", want, md)
		}
	}
}
