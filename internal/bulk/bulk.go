// Package bulk turns a selection into a status mutation, applies it optimistically to the
// row cache, and reconciles once the server answers.
package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"basehook-cli/internal/api"
	"basehook-cli/internal/fetch"
	"basehook-cli/internal/journal"
	"basehook-cli/internal/model"
	"basehook-cli/internal/query"
	"basehook-cli/internal/selection"
)

type Action string

const (
	ActionRequeue Action = "requeue"
	ActionSkip    Action = "skip"
)

var Actions = []Action{ActionRequeue, ActionSkip}

var (
	ErrUnsupportedAction = errors.New("unsupported bulk action")
	ErrEmptySelection    = errors.New("nothing selected")
)

func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if _, err := TargetStatus(a); err != nil {
		return "", err
	}
	return a, nil
}

// TargetStatus is the status a row ends up in after a.
func TargetStatus(a Action) (model.Status, error) {
	switch a {
	case ActionRequeue:
		return model.StatusPending, nil
	case ActionSkip:
		return model.StatusSkipped, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedAction, string(a))
}

// BuildRequest scopes the mutation: AllMatching sends the filters of st and no ids, any
// other non-empty selection sends its ids and no filters.
func BuildRequest(a Action, sel selection.State, st query.State) (api.UpdateStatusRequest, error) {
	status, err := TargetStatus(a)
	if err != nil {
		return api.UpdateStatusRequest{}, err
	}
	req := api.UpdateStatusRequest{Status: status.WireValue()}
	switch sel.Mode {
	case selection.ModeAllMatching:
		q := api.NewQueryRequest(st)
		req.AllMatching = true
		req.Filters = q.Filters
		req.Range = q.Range
		req.JoinOperator = q.JoinOperator
	case selection.ModePartialPage, selection.ModeFullPage:
		if len(sel.IDs) == 0 {
			return api.UpdateStatusRequest{}, ErrEmptySelection
		}
		req.IDs = slices.Clone(sel.IDs)
	default:
		return api.UpdateStatusRequest{}, ErrEmptySelection
	}
	return req, nil
}

// Op is a submitted bulk action awaiting the server.
type Op struct {
	ID        string
	Action    Action
	Status    model.Status
	Request   api.UpdateStatusRequest
	Link      string
	StartedAt time.Time
	snapshot  fetch.Snapshot
}

// Mutator performs the remote status update.
type Mutator interface {
	UpdateStatus(ctx context.Context, req api.UpdateStatusRequest) (api.UpdateStatusResponse, error)
}

// Recorder persists ops. *journal.Journal implements it.
type Recorder interface {
	Begin(ctx context.Context, e journal.Entry) error
	Finish(ctx context.Context, id string, updated int, failure string) error
}

type Outcome struct {
	OpID    string
	Updated int
	Err     error
}

// Completion is what the caller needs after an op finished. Refetch asks for a forced
// reload because the cache may not reflect the server.
type Completion struct {
	Op         Op
	Updated    int
	Err        error
	RolledBack bool
	Refetch    bool
}

// Coordinator keeps the log of ops that have been applied locally but not yet confirmed.
// Begin and Complete belong to the event loop; Run may execute anywhere.
type Coordinator struct {
	pending []Op
	journal Recorder
	logf    func(format string, args ...any)
	now     func() time.Time
}

type Option func(*Coordinator)

func WithJournal(r Recorder) Option {
	return func(c *Coordinator) { c.journal = r }
}

// WithLogf routes failure reports (journal errors, failed mutations) to logf.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(c *Coordinator) { c.logf = logf }
}

func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) log(format string, args ...any) {
	if c.logf != nil {
		c.logf(format, args...)
	}
}

// Begin builds the request from the selection and the view state as they are now, applies
// the target status to the cached rows in scope, and logs the op as pending. rows may be
// nil when there is no cache (CLI use).
func (c *Coordinator) Begin(a Action, sel selection.State, st query.State, rows *fetch.Coordinator) (Op, error) {
	req, err := BuildRequest(a, sel, st)
	if err != nil {
		return Op{}, err
	}
	status, _ := TargetStatus(a)
	id, err := journal.NewOpID()
	if err != nil {
		return Op{}, err
	}
	op := Op{
		ID:        id,
		Action:    a,
		Status:    status,
		Request:   req,
		Link:      st.QueryString(),
		StartedAt: c.now(),
	}
	if rows != nil {
		var match func(model.ThreadUpdate) bool
		if !req.AllMatching {
			inScope := make(map[int64]struct{}, len(req.IDs))
			for _, id := range req.IDs {
				inScope[id] = struct{}{}
			}
			match = func(r model.ThreadUpdate) bool {
				_, ok := inScope[r.ID]
				return ok
			}
		}
		// Cached rows were fetched for the current filters, so all of them are in an
		// AllMatching scope.
		op.snapshot = rows.ApplyStatus(status, match)
	}
	c.pending = append(c.pending, op)
	return op, nil
}

// Run sends the op and journals it. It does not touch the pending log.
func (c *Coordinator) Run(ctx context.Context, m Mutator, op Op) Outcome {
	if c.journal != nil {
		if err := c.journal.Begin(ctx, journalEntry(op)); err != nil {
			c.log("bulk: journal begin %s: %v", op.ID, err)
		}
	}
	resp, err := m.UpdateStatus(ctx, op.Request)
	out := Outcome{OpID: op.ID, Updated: resp.Updated, Err: err}
	if c.journal != nil {
		failure := ""
		if err != nil {
			failure = err.Error()
		}
		if jerr := c.journal.Finish(context.WithoutCancel(ctx), op.ID, resp.Updated, failure); jerr != nil {
			c.log("bulk: journal finish %s: %v", op.ID, jerr)
		}
	}
	return out
}

func journalEntry(op Op) journal.Entry {
	e := journal.Entry{
		ID:        op.ID,
		Action:    string(op.Action),
		Status:    op.Request.Status,
		Link:      op.Link,
		StartedAt: op.StartedAt,
	}
	if op.Request.AllMatching {
		e.Scope = journal.ScopeFilters
		filters := op.Request.Filters
		if filters == nil {
			filters = []query.Filter{}
		}
		if b, err := json.Marshal(filters); err == nil {
			e.Filters = b
		}
	} else {
		e.Scope = journal.ScopeIDs
		e.IDs = op.Request.IDs
	}
	return e
}

// Complete removes the op from the pending log. On failure it puts back the rows the op
// changed if no fetch has replaced them since, and asks for a refetch either way.
func (c *Coordinator) Complete(out Outcome, rows *fetch.Coordinator) Completion {
	idx := slices.IndexFunc(c.pending, func(op Op) bool { return op.ID == out.OpID })
	if idx < 0 {
		return Completion{Op: Op{ID: out.OpID}, Updated: out.Updated, Err: out.Err, Refetch: out.Err != nil}
	}
	op := c.pending[idx]
	c.pending = slices.Delete(c.pending, idx, idx+1)

	comp := Completion{Op: op, Updated: out.Updated, Err: out.Err}
	if out.Err == nil {
		return comp
	}
	c.log("bulk: %s %s failed: %v", op.Action, op.ID, out.Err)
	comp.Refetch = true
	if rows != nil {
		comp.RolledBack = rows.Restore(op.snapshot)
	}
	return comp
}

// Pending lists ops that have not completed, oldest first.
func (c *Coordinator) Pending() []Op {
	return slices.Clone(c.pending)
}
