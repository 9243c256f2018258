// Package fetch keeps the row cache of a table view in step with its query state.
//
// Every request carries a sequence number. Only the result of the most recently issued
// request is applied; anything older is dropped, so responses that arrive out of order can
// never overwrite newer rows. Issuing a request also cancels the context of the one before it.
package fetch

import (
	"context"
	"errors"
	"slices"

	"basehook-cli/internal/api"
	"basehook-cli/internal/model"
	"basehook-cli/internal/query"
)

// Fetcher performs the remote row query.
type Fetcher interface {
	Query(ctx context.Context, req api.QueryRequest) (api.QueryResponse, error)
}

// Request is one issued fetch.
type Request struct {
	Seq   uint64
	State query.State
	ctx   context.Context
}

// Context is cancelled once a newer request is issued.
func (r Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// Result is the outcome of running a Request.
type Result struct {
	Seq        uint64
	State      query.State
	Rows       []model.ThreadUpdate
	Total      int
	TotalPages int
	Err        error
}

// Snapshot is the cache content before an optimistic edit.
type Snapshot struct {
	Generation uint64
	Rows       []model.ThreadUpdate
}

// Coordinator is owned by a single event loop and is not safe for concurrent use. Run is
// the only function meant to execute elsewhere.
type Coordinator struct {
	seq       uint64
	issued    query.State
	hasIssued bool
	cancel    context.CancelFunc
	loading   bool

	rows       []model.ThreadUpdate
	total      int
	totalPages int
	applied    query.State
	generation uint64
	err        error
}

func New() *Coordinator {
	return &Coordinator{}
}

// Begin issues a request for st unless st equals the state of the last issued request.
func (c *Coordinator) Begin(st query.State) (Request, bool) {
	if c.hasIssued && c.issued.Equal(st) {
		return Request{}, false
	}
	return c.issue(st), true
}

// Refresh always issues a request, e.g. for a manual reload.
func (c *Coordinator) Refresh(st query.State) Request {
	return c.issue(st)
}

func (c *Coordinator) issue(st query.State) Request {
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.seq++
	c.issued = st.Clone()
	c.hasIssued = true
	c.loading = true
	return Request{Seq: c.seq, State: c.issued.Clone(), ctx: ctx}
}

// Run performs the request. It touches nothing but its arguments.
func Run(f Fetcher, req Request) Result {
	res := Result{Seq: req.Seq, State: req.State}
	resp, err := f.Query(req.Context(), api.NewQueryRequest(req.State))
	if err != nil {
		res.Err = err
		return res
	}
	res.Rows = resp.Updates
	res.Total = resp.Total
	res.TotalPages = resp.PageCount(req.State.PerPage)
	return res
}

// Resolve applies res if it answers the latest request and reports whether it did.
// A failed fetch empties the cache and keeps the error for display.
func (c *Coordinator) Resolve(res Result) bool {
	if res.Seq != c.seq || !c.loading {
		return false
	}
	c.loading = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.applied = res.State.Clone()
	if res.Err != nil {
		c.rows = nil
		c.total = 0
		c.totalPages = 0
		c.err = res.Err
		return true
	}
	c.rows = slices.Clone(res.Rows)
	c.total = res.Total
	c.totalPages = res.TotalPages
	c.err = nil
	return true
}

func (c *Coordinator) Loading() bool      { return c.loading }
func (c *Coordinator) Err() error         { return c.err }
func (c *Coordinator) Total() int         { return c.total }
func (c *Coordinator) TotalPages() int    { return c.totalPages }
func (c *Coordinator) Generation() uint64 { return c.generation }
func (c *Coordinator) Seq() uint64        { return c.seq }

// Applied is the state the cached rows were fetched for.
func (c *Coordinator) Applied() query.State { return c.applied.Clone() }

// Cancelled reports whether err came from a superseded request.
func Cancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

func (c *Coordinator) Rows() []model.ThreadUpdate {
	return slices.Clone(c.rows)
}

func (c *Coordinator) RowIDs() []int64 {
	ids := make([]int64, 0, len(c.rows))
	for _, r := range c.rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func (c *Coordinator) Row(id int64) (model.ThreadUpdate, bool) {
	for _, r := range c.rows {
		if r.ID == id {
			return r, true
		}
	}
	return model.ThreadUpdate{}, false
}

// ApplyStatus sets status on every cached row match accepts and returns the previous cache.
func (c *Coordinator) ApplyStatus(status model.Status, match func(model.ThreadUpdate) bool) Snapshot {
	snap := Snapshot{Generation: c.generation, Rows: slices.Clone(c.rows)}
	next := slices.Clone(c.rows)
	for i := range next {
		if match == nil || match(next[i]) {
			next[i].Status = status
		}
	}
	c.rows = next
	return snap
}

// Restore puts snap back unless a fetch has replaced the cache since it was taken.
func (c *Coordinator) Restore(snap Snapshot) bool {
	if snap.Generation != c.generation {
		return false
	}
	c.rows = slices.Clone(snap.Rows)
	return true
}
