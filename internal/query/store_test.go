package query

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestStore(t *testing.T, initial State) (*Store, *MemoryLocation, *[]State) {
	t.Helper()
	loc := &MemoryLocation{}
	s, err := NewStore(initial, WithCatalog(ThreadUpdateColumns), WithLocation(loc))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	var seen []State
	s.Subscribe(func(st State) { seen = append(seen, st) })
	return s, loc, &seen
}

func TestStore_FilterAndSortChangesResetPage(t *testing.T) {
	t.Parallel()

	start := DefaultState()
	start.Page = 4
	s, _, _ := newTestStore(t, start)

	f := mustFilter(t, "status", VariantMultiSelect, OpIn, "ERROR")
	if err := s.SetFilter(f); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	if got := s.State().Page; got != 1 {
		t.Fatalf("expected page 1 after SetFilter; got %d", got)
	}

	steps := []func() error{
		func() error { return s.ToggleSort("timestamp") },
		func() error { return s.SetSort([]Sort{{ColumnID: "id"}}) },
		func() error { return s.SetTimeRange(Range1h) },
		func() error { return s.SetJoinOperator(JoinOr) },
		func() error { return s.SetPerPage(50) },
		func() error { return s.RemoveFilter(f.FilterID) },
	}
	for i, step := range steps {
		if err := s.SetPage(3); err != nil {
			t.Fatalf("SetPage: %v", err)
		}
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := s.State().Page; got != 1 {
			t.Fatalf("step %d: expected page 1; got %d", i, got)
		}
	}
}

func TestStore_SetFilterUpsertsByFilterID(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t, DefaultState())
	a := mustFilter(t, "thread_id", VariantText, OpILike, "abc")
	b := mustFilter(t, "thread_id", VariantText, OpNe, "zzz")
	for _, f := range []Filter{a, b} {
		if err := s.SetFilter(f); err != nil {
			t.Fatalf("SetFilter: %v", err)
		}
	}
	edited, err := a.WithValue("abd")
	if err != nil {
		t.Fatalf("WithValue: %v", err)
	}
	if err := s.SetFilter(edited); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	got := s.State().Filters
	if diff := cmp.Diff([]Filter{edited, b}, got); diff != "" {
		t.Fatalf("filters mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_NoOpMutationsDoNotNotify(t *testing.T) {
	t.Parallel()

	s, loc, seen := newTestStore(t, DefaultState())
	writes := loc.Writes

	if err := s.SetPage(1); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	if err := s.SetTimeRange(RangeAll); err != nil {
		t.Fatalf("SetTimeRange: %v", err)
	}
	if err := s.SetSort(nil); err != nil {
		t.Fatalf("SetSort: %v", err)
	}
	s.ClearFilters()
	if s.PrevPage() {
		t.Fatalf("expected PrevPage on page 1 to do nothing")
	}
	if s.NextPage(1) {
		t.Fatalf("expected NextPage on the last page to do nothing")
	}
	if err := s.Replace(DefaultState()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if loc.Writes != writes || len(*seen) != 0 {
		t.Fatalf("expected no writes or notifications; got writes=%d notifications=%d", loc.Writes-writes, len(*seen))
	}
}

func TestStore_NotifiesInOrderAndWritesLocation(t *testing.T) {
	t.Parallel()

	s, loc, seen := newTestStore(t, DefaultState())
	var order []string
	cancel := s.Subscribe(func(State) { order = append(order, "second") })

	if !s.NextPage(3) {
		t.Fatalf("expected NextPage to advance")
	}
	if err := s.SetPerPage(20); err != nil {
		t.Fatalf("SetPerPage: %v", err)
	}
	cancel()
	if err := s.SetTimeRange(Range30d); err != nil {
		t.Fatalf("SetTimeRange: %v", err)
	}

	if len(*seen) != 3 {
		t.Fatalf("expected 3 notifications; got %d", len(*seen))
	}
	if (*seen)[0].Page != 2 || (*seen)[1].PerPage != 20 || (*seen)[2].TimeRange != Range30d {
		t.Fatalf("notifications out of order: %+v", *seen)
	}
	if len(order) != 2 {
		t.Fatalf("expected cancelled subscriber to see 2 changes; got %d", len(order))
	}
	if loc.RawQuery != s.Link() {
		t.Fatalf("expected location %q; got %q", s.Link(), loc.RawQuery)
	}
	back, issues := ParseLink(loc.RawQuery)
	if len(issues) != 0 || !back.Equal(s.State()) {
		t.Fatalf("expected location to decode to the current state; issues=%v", issues)
	}
}

func TestStore_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	s, loc, seen := newTestStore(t, DefaultState())
	writes := loc.Writes

	bad := Filter{FilterID: "x", ColumnID: "status", Variant: VariantMultiSelect, Operator: OpILike, Value: []string{"ERROR"}}
	if err := s.SetFilter(bad); !IsValidation(err) {
		t.Fatalf("expected validation error; got %v", err)
	}
	if err := s.SetPerPage(0); err == nil {
		t.Fatalf("expected perPage 0 to be rejected")
	}
	if err := s.SetPage(-1); err == nil {
		t.Fatalf("expected page -1 to be rejected")
	}
	if err := s.ToggleSort("content"); err == nil {
		t.Fatalf("expected sort on content to be rejected")
	}
	if err := s.RemoveFilter("missing"); !errors.Is(err, ErrFilterNotFound) {
		t.Fatalf("expected ErrFilterNotFound; got %v", err)
	}
	if loc.Writes != writes || len(*seen) != 0 {
		t.Fatalf("expected state untouched after rejected input")
	}
}

func TestStore_ToggleSortCycles(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t, DefaultState())
	if err := s.SetSort([]Sort{{ColumnID: "id"}}); err != nil {
		t.Fatalf("SetSort: %v", err)
	}
	want := [][]Sort{
		{{ColumnID: "timestamp"}, {ColumnID: "id"}},
		{{ColumnID: "timestamp", Desc: true}, {ColumnID: "id"}},
		{{ColumnID: "id"}},
	}
	for i, w := range want {
		if err := s.ToggleSort("timestamp"); err != nil {
			t.Fatalf("ToggleSort: %v", err)
		}
		if diff := cmp.Diff(w, s.State().Sort); diff != "" {
			t.Fatalf("toggle %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestNewStoreFromLink_FallsBack(t *testing.T) {
	t.Parallel()

	loc := &MemoryLocation{}
	s, issues := NewStoreFromLink("?page=-3&perPage=20&range=2w", WithCatalog(ThreadUpdateColumns), WithLocation(loc))
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues; got %v", issues)
	}
	st := s.State()
	if st.Page != 1 || st.PerPage != 20 || st.TimeRange != RangeAll {
		t.Fatalf("unexpected fallback state: %+v", st)
	}
	if loc.RawQuery != "page=1&perPage=20" {
		t.Fatalf("expected canonical link written; got %q", loc.RawQuery)
	}
}
