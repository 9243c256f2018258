package selection

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ids(from, to int64) []int64 {
	var out []int64
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestController_TransitionsToFullPageThenAllMatching(t *testing.T) {
	t.Parallel()

	c := New()
	c.Load(ids(1, 10), 25, 10)
	if c.Mode() != ModeNone {
		t.Fatalf("expected none after load; got %s", c.Mode())
	}
	if err := c.SelectAllMatching(); !errors.Is(err, ErrAllMatchingUnavailable) {
		t.Fatalf("expected all matching to be unavailable from none; got %v", err)
	}

	for i, id := range ids(1, 10) {
		if err := c.Toggle(id); err != nil {
			t.Fatalf("Toggle(%d): %v", id, err)
		}
		want := ModePartialPage
		if i == 9 {
			want = ModeFullPage
		}
		if c.Mode() != want {
			t.Fatalf("after %d selections expected %s; got %s", i+1, want, c.Mode())
		}
		if i < 9 {
			if err := c.SelectAllMatching(); !errors.Is(err, ErrAllMatchingUnavailable) {
				t.Fatalf("expected all matching to be unavailable from partial; got %v", err)
			}
		}
	}

	if !c.CanSelectAllMatching() {
		t.Fatalf("expected all matching to be offered")
	}
	if err := c.SelectAllMatching(); err != nil {
		t.Fatalf("SelectAllMatching: %v", err)
	}
	if c.Mode() != ModeAllMatching {
		t.Fatalf("expected all matching; got %s", c.Mode())
	}
	if got := c.SelectedCount().String(); got != "all 25" {
		t.Fatalf("expected count %q; got %q", "all 25", got)
	}
	if !c.IsRowSelected(3) || c.IsRowSelected(99) {
		t.Fatalf("expected loaded rows selected and unknown rows not")
	}
	if snap := c.Snapshot(); snap.Mode != ModeAllMatching || snap.IDs != nil {
		t.Fatalf("expected intensional snapshot; got %+v", snap)
	}
	if err := c.Toggle(3); !errors.Is(err, ErrAllMatchingActive) {
		t.Fatalf("expected toggle to be rejected in all matching; got %v", err)
	}

	c.Clear()
	if c.Mode() != ModeNone || c.SelectedCount().N != 0 {
		t.Fatalf("expected clear to return to none")
	}
}

func TestController_AllMatchingNeedsMoreRowsThanPage(t *testing.T) {
	t.Parallel()

	c := New()
	c.Load(ids(1, 10), 10, 10)
	if err := c.SetPage(true); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	if c.Mode() != ModeFullPage {
		t.Fatalf("expected full page; got %s", c.Mode())
	}
	if err := c.SelectAllMatching(); !errors.Is(err, ErrAllMatchingUnavailable) {
		t.Fatalf("expected unavailable when total fits one page; got %v", err)
	}
}

func TestController_LoadResetsSelection(t *testing.T) {
	t.Parallel()

	c := New()
	c.Load(ids(1, 10), 25, 10)
	_ = c.SetPage(true)
	_ = c.SelectAllMatching()

	c.Load(ids(11, 20), 25, 10)
	if c.Mode() != ModeNone || c.IsRowSelected(11) {
		t.Fatalf("expected fresh page to reset selection; mode=%s", c.Mode())
	}
	if err := c.Toggle(3); !errors.Is(err, ErrUnknownRow) {
		t.Fatalf("expected row from previous page to be ignored; got %v", err)
	}
}

func TestController_SnapshotKeepsPageOrder(t *testing.T) {
	t.Parallel()

	c := New()
	c.Load([]int64{30, 10, 20}, 3, 10)
	_ = c.Toggle(20)
	_ = c.Toggle(30)
	snap := c.Snapshot()
	if snap.Mode != ModePartialPage {
		t.Fatalf("expected partial; got %s", snap.Mode)
	}
	if diff := cmp.Diff([]int64{30, 20}, snap.IDs); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	_ = c.Set(20, false)
	_ = c.Set(30, false)
	if c.Mode() != ModeNone {
		t.Fatalf("expected none after deselecting everything; got %s", c.Mode())
	}
	if got := c.SelectedCount().String(); got != "0" {
		t.Fatalf("expected count 0; got %q", got)
	}
}

func TestController_HeaderCheckboxClearsAllMatching(t *testing.T) {
	t.Parallel()

	c := New()
	c.Load(ids(1, 10), 25, 10)
	_ = c.SetPage(true)
	_ = c.SelectAllMatching()
	if err := c.SetPage(false); err != nil {
		t.Fatalf("SetPage(false): %v", err)
	}
	if c.Mode() != ModeNone {
		t.Fatalf("expected none; got %s", c.Mode())
	}
}
