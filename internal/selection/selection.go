// Package selection tracks which rows of a paginated table are selected.
//
// Ids are only meaningful for the loaded page. Selecting beyond the page switches to
// AllMatching, which stands for every row the current filters match, loaded or not.
package selection

import (
	"errors"
	"fmt"
	"strconv"
)

type Mode int

const (
	ModeNone Mode = iota
	ModePartialPage
	ModeFullPage
	ModeAllMatching
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModePartialPage:
		return "partial"
	case ModeFullPage:
		return "page"
	case ModeAllMatching:
		return "all-matching"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

var (
	ErrAllMatchingUnavailable = errors.New("select all matching needs the whole page selected and more matching rows than one page holds")
	ErrAllMatchingActive      = errors.New("all matching rows are selected; clear the selection first")
	ErrUnknownRow             = errors.New("row is not on the loaded page")
)

// Count is what the selection covers. All is set in AllMatching, where N is the server total.
type Count struct {
	N   int
	All bool
}

func (c Count) String() string {
	if c.All {
		return "all " + strconv.Itoa(c.N)
	}
	return strconv.Itoa(c.N)
}

// State is an immutable view of the selection. IDs follow page order and are empty in
// ModeNone and ModeAllMatching.
type State struct {
	Mode Mode
	IDs  []int64
}

// Controller is owned by one event loop and is not safe for concurrent use.
type Controller struct {
	mode     Mode
	page     []int64
	onPage   map[int64]struct{}
	selected map[int64]struct{}
	total    int
	perPage  int
}

func New() *Controller {
	return &Controller{onPage: map[int64]struct{}{}, selected: map[int64]struct{}{}}
}

// Load replaces the candidate rows with a freshly fetched page and clears the selection.
func (c *Controller) Load(pageIDs []int64, total, perPage int) {
	c.page = append(c.page[:0:0], pageIDs...)
	c.onPage = make(map[int64]struct{}, len(pageIDs))
	for _, id := range pageIDs {
		c.onPage[id] = struct{}{}
	}
	c.total = total
	c.perPage = perPage
	c.Clear()
}

func (c *Controller) Clear() {
	c.mode = ModeNone
	c.selected = map[int64]struct{}{}
}

func (c *Controller) Toggle(id int64) error {
	_, on := c.selected[id]
	return c.Set(id, !on)
}

func (c *Controller) Set(id int64, selected bool) error {
	if c.mode == ModeAllMatching {
		return ErrAllMatchingActive
	}
	if _, ok := c.onPage[id]; !ok {
		return ErrUnknownRow
	}
	if selected {
		c.selected[id] = struct{}{}
	} else {
		delete(c.selected, id)
	}
	c.recompute()
	return nil
}

// SetPage selects or deselects every loaded row (the header checkbox). Deselecting from
// AllMatching clears it.
func (c *Controller) SetPage(selected bool) error {
	if c.mode == ModeAllMatching {
		if selected {
			return ErrAllMatchingActive
		}
		c.Clear()
		return nil
	}
	c.selected = make(map[int64]struct{}, len(c.page))
	if selected {
		for _, id := range c.page {
			c.selected[id] = struct{}{}
		}
	}
	c.recompute()
	return nil
}

// CanSelectAllMatching reports whether SelectAllMatching would succeed.
func (c *Controller) CanSelectAllMatching() bool {
	return c.mode == ModeFullPage && c.total > c.perPage
}

func (c *Controller) SelectAllMatching() error {
	if !c.CanSelectAllMatching() {
		return ErrAllMatchingUnavailable
	}
	c.mode = ModeAllMatching
	c.selected = map[int64]struct{}{}
	return nil
}

func (c *Controller) recompute() {
	switch n := len(c.selected); {
	case n == 0:
		c.mode = ModeNone
	case n == len(c.page):
		c.mode = ModeFullPage
	default:
		c.mode = ModePartialPage
	}
}

func (c *Controller) Mode() Mode { return c.mode }

func (c *Controller) SelectedCount() Count {
	if c.mode == ModeAllMatching {
		return Count{N: c.total, All: true}
	}
	return Count{N: len(c.selected)}
}

func (c *Controller) IsRowSelected(id int64) bool {
	if c.mode == ModeAllMatching {
		_, ok := c.onPage[id]
		return ok
	}
	_, ok := c.selected[id]
	return ok
}

func (c *Controller) Snapshot() State {
	st := State{Mode: c.mode}
	if c.mode == ModePartialPage || c.mode == ModeFullPage {
		for _, id := range c.page {
			if _, ok := c.selected[id]; ok {
				st.IDs = append(st.IDs, id)
			}
		}
	}
	return st
}
