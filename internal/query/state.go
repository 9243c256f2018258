package query

import (
	"slices"
	"time"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 500
)

// PerPageChoices are the page sizes offered interactively; any size in 1..MaxPerPage is valid.
var PerPageChoices = []int{10, 20, 50, 100}

type JoinOperator string

const (
	JoinAnd JoinOperator = "and"
	JoinOr  JoinOperator = "or"
)

func (j JoinOperator) Valid() bool { return j == JoinAnd || j == JoinOr }

// TimeRange restricts rows to a trailing window ending now.
type TimeRange string

const (
	Range1h  TimeRange = "1h"
	Range6h  TimeRange = "6h"
	Range24h TimeRange = "24h"
	Range7d  TimeRange = "7d"
	Range30d TimeRange = "30d"
	RangeAll TimeRange = "all"
)

var TimeRanges = []TimeRange{Range1h, Range6h, Range24h, Range7d, Range30d, RangeAll}

func (r TimeRange) Valid() bool { return slices.Contains(TimeRanges, r) }

// Duration returns the window length; ok is false for RangeAll.
func (r TimeRange) Duration() (d time.Duration, ok bool) {
	switch r {
	case Range1h:
		return time.Hour, true
	case Range6h:
		return 6 * time.Hour, true
	case Range24h:
		return 24 * time.Hour, true
	case Range7d:
		return 7 * 24 * time.Hour, true
	case Range30d:
		return 30 * 24 * time.Hour, true
	}
	return 0, false
}

// Next cycles through TimeRanges.
func (r TimeRange) Next() TimeRange {
	i := slices.Index(TimeRanges, r)
	return TimeRanges[(i+1)%len(TimeRanges)]
}

// Sort is one sort key; earlier keys take precedence.
type Sort struct {
	ColumnID string `json:"id"`
	Desc     bool   `json:"desc"`
}

// State is the full description of what a table view shows.
type State struct {
	Page         int
	PerPage      int
	Filters      []Filter
	Sort         []Sort
	JoinOperator JoinOperator
	TimeRange    TimeRange
}

func DefaultState() State {
	return State{
		Page:         1,
		PerPage:      DefaultPerPage,
		JoinOperator: JoinAnd,
		TimeRange:    RangeAll,
	}
}

// Validate checks every invariant of s. Filter ids must be unique.
func (s State) Validate() error {
	return s.validate(nil)
}

func (s State) validate(cat Catalog) error {
	if s.Page < 1 {
		return invalid("page", "must be >= 1, got %d", s.Page)
	}
	if s.PerPage < 1 || s.PerPage > MaxPerPage {
		return invalid("perPage", "must be between 1 and %d, got %d", MaxPerPage, s.PerPage)
	}
	if err := checkFilters(cat, s.Filters); err != nil {
		return err
	}
	if err := cat.CheckSort(s.Sort); err != nil {
		return err
	}
	if !s.JoinOperator.Valid() {
		return invalid("joinOperator", "want and or or, got %q", string(s.JoinOperator))
	}
	if !s.TimeRange.Valid() {
		return invalid("range", "unknown range %q", string(s.TimeRange))
	}
	return nil
}

func checkFilters(cat Catalog, filters []Filter) error {
	seen := make(map[string]struct{}, len(filters))
	for _, f := range filters {
		if err := cat.CheckFilter(f); err != nil {
			return err
		}
		if _, dup := seen[f.FilterID]; dup {
			return invalid("filterId", "%q is used by more than one filter", f.FilterID)
		}
		seen[f.FilterID] = struct{}{}
	}
	return nil
}

// Equal is value equality; nil and empty lists compare equal.
func (s State) Equal(o State) bool {
	return s.Page == o.Page &&
		s.PerPage == o.PerPage &&
		s.JoinOperator == o.JoinOperator &&
		s.TimeRange == o.TimeRange &&
		filtersEqual(s.Filters, o.Filters) &&
		slices.Equal(s.Sort, o.Sort)
}

func filtersEqual(a, b []Filter) bool {
	return slices.EqualFunc(a, b, Filter.Equal)
}

// Clone returns a deep copy with empty lists normalized to nil.
func (s State) Clone() State {
	out := s
	out.Filters = nil
	for _, f := range s.Filters {
		out.Filters = append(out.Filters, f.Clone())
	}
	out.Sort = nil
	if len(s.Sort) > 0 {
		out.Sort = slices.Clone(s.Sort)
	}
	return out
}

// Offset is the index of the first row of the current page.
func (s State) Offset() int {
	return (s.Page - 1) * s.PerPage
}

// PageCount is ceil(total/perPage).
func PageCount(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// SortFor reports the sort key for column, if any.
func (s State) SortFor(column string) (Sort, bool) {
	for _, k := range s.Sort {
		if k.ColumnID == column {
			return k, true
		}
	}
	return Sort{}, false
}
