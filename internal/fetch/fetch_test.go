package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"basehook-cli/internal/api"
	"basehook-cli/internal/model"
	"basehook-cli/internal/query"
)

// pagedFetcher serves total synthetic rows, perPage at a time.
type pagedFetcher struct {
	total int
	err   error
}

func (f pagedFetcher) Query(ctx context.Context, req api.QueryRequest) (api.QueryResponse, error) {
	if f.err != nil {
		return api.QueryResponse{}, f.err
	}
	if err := ctx.Err(); err != nil {
		return api.QueryResponse{}, err
	}
	var rows []model.ThreadUpdate
	for i := (req.Page - 1) * req.PerPage; i < req.Page*req.PerPage && i < f.total; i++ {
		rows = append(rows, model.ThreadUpdate{ID: int64(i + 1), Status: model.StatusPending})
	}
	return api.QueryResponse{Updates: rows, Total: f.total}, nil
}

func pageState(page int) query.State {
	st := query.DefaultState()
	st.Page = page
	return st
}

func TestCoordinator_StaleResponseIsDiscarded(t *testing.T) {
	t.Parallel()

	c := New()
	f := pagedFetcher{total: 25}

	req1, ok := c.Begin(pageState(1))
	if !ok {
		t.Fatalf("expected first request to be issued")
	}
	req2, ok := c.Begin(pageState(2))
	if !ok {
		t.Fatalf("expected second request to be issued")
	}
	if req1.Context().Err() == nil {
		t.Fatalf("expected superseded request context to be cancelled")
	}

	// The page 1 response is built before cancellation took effect and arrives late.
	late := Result{Seq: req1.Seq, State: req1.State, Rows: []model.ThreadUpdate{{ID: 1}}, Total: 25, TotalPages: 3}

	if !c.Resolve(Run(f, req2)) {
		t.Fatalf("expected latest result to apply")
	}
	if c.Resolve(late) {
		t.Fatalf("expected stale result to be discarded")
	}

	ids := c.RowIDs()
	if diff := cmp.Diff([]int64{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, ids); diff != "" {
		t.Fatalf("expected page 2 rows (-want +got):\n%s", diff)
	}
	if c.Total() != 25 || c.TotalPages() != 3 {
		t.Fatalf("expected total 25 over 3 pages; got %d over %d", c.Total(), c.TotalPages())
	}
	if c.Loading() {
		t.Fatalf("expected loading to be cleared")
	}
}

func TestCoordinator_StaleResponseBeforeLatestIsAlsoDiscarded(t *testing.T) {
	t.Parallel()

	c := New()
	req1, _ := c.Begin(pageState(1))
	_, _ = c.Begin(pageState(2))

	res := Run(pagedFetcher{total: 25}, req1)
	if !Cancelled(res.Err) {
		t.Fatalf("expected cancelled error for superseded request; got %v", res.Err)
	}
	if c.Resolve(res) {
		t.Fatalf("expected superseded result to be discarded")
	}
	if !c.Loading() {
		t.Fatalf("expected latest request to still be loading")
	}
}

func TestCoordinator_BeginDeduplicatesEqualStates(t *testing.T) {
	t.Parallel()

	c := New()
	if _, ok := c.Begin(pageState(1)); !ok {
		t.Fatalf("expected first request")
	}
	if _, ok := c.Begin(pageState(1)); ok {
		t.Fatalf("expected equal state not to issue another request")
	}
	req := c.Refresh(pageState(1))
	if req.Seq != 2 {
		t.Fatalf("expected refresh to issue seq 2; got %d", req.Seq)
	}
}

func TestCoordinator_FailureEmptiesCache(t *testing.T) {
	t.Parallel()

	c := New()
	req, _ := c.Begin(pageState(1))
	c.Resolve(Run(pagedFetcher{total: 5}, req))
	if len(c.Rows()) != 5 {
		t.Fatalf("expected 5 rows; got %d", len(c.Rows()))
	}

	boom := errors.New("boom")
	req, _ = c.Begin(pageState(2))
	if !c.Resolve(Run(pagedFetcher{err: boom}, req)) {
		t.Fatalf("expected failed result to apply")
	}
	if !errors.Is(c.Err(), boom) {
		t.Fatalf("expected error to be kept; got %v", c.Err())
	}
	if len(c.Rows()) != 0 || c.Total() != 0 || c.TotalPages() != 0 {
		t.Fatalf("expected empty cache after failure")
	}

	req = c.Refresh(pageState(2))
	c.Resolve(Run(pagedFetcher{total: 15}, req))
	if c.Err() != nil {
		t.Fatalf("expected error cleared by a successful fetch; got %v", c.Err())
	}
}

func TestCoordinator_ApplyStatusAndRestore(t *testing.T) {
	t.Parallel()

	c := New()
	req, _ := c.Begin(pageState(1))
	c.Resolve(Run(pagedFetcher{total: 3}, req))

	snap := c.ApplyStatus(model.StatusSkipped, func(r model.ThreadUpdate) bool { return r.ID != 2 })
	got := []model.Status{}
	for _, r := range c.Rows() {
		got = append(got, r.Status)
	}
	want := []model.Status{model.StatusSkipped, model.StatusPending, model.StatusSkipped}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("optimistic statuses mismatch (-want +got):\n%s", diff)
	}

	if !c.Restore(snap) {
		t.Fatalf("expected restore to succeed on unchanged generation")
	}
	for _, r := range c.Rows() {
		if r.Status != model.StatusPending {
			t.Fatalf("expected restored status pending; got %s", r.Status)
		}
	}

	snap = c.ApplyStatus(model.StatusSkipped, nil)
	req = c.Refresh(pageState(1))
	c.Resolve(Run(pagedFetcher{total: 3}, req))
	if c.Restore(snap) {
		t.Fatalf("expected restore to be refused after a newer fetch")
	}
}
