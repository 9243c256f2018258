package query

import (
	"slices"
)

// Location receives the canonical query string after every effective change.
type Location interface {
	Replace(rawQuery string)
}

// LocationFunc adapts a function to Location.
type LocationFunc func(rawQuery string)

func (f LocationFunc) Replace(rawQuery string) { f(rawQuery) }

// MemoryLocation records the last written query string.
type MemoryLocation struct {
	RawQuery string
	Writes   int
}

func (l *MemoryLocation) Replace(rawQuery string) {
	l.RawQuery = rawQuery
	l.Writes++
}

type subscriber struct {
	id int
	fn func(State)
}

// Store owns the current view state. It is not safe for concurrent use; the event loop that
// owns it serializes all mutations.
type Store struct {
	state   State
	catalog Catalog
	loc     Location
	subs    []subscriber
	nextSub int
}

type Option func(*Store)

// WithCatalog restricts filters and sorts to the columns of cat.
func WithCatalog(cat Catalog) Option {
	return func(s *Store) { s.catalog = cat }
}

func WithLocation(loc Location) Option {
	return func(s *Store) { s.loc = loc }
}

// NewStore validates initial and writes it to the location.
func NewStore(initial State, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if err := initial.validate(s.catalog); err != nil {
		return nil, err
	}
	s.state = initial.Clone()
	s.writeLocation()
	return s, nil
}

// NewStoreFromLink builds a store from a shareable link. Invalid parameters fall back to
// their defaults and are reported as issues; the store is always usable.
func NewStoreFromLink(link string, opts ...Option) (*Store, []*ValidationError) {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	st, issues := parseLink(link, s.catalog)
	s.state = st.Clone()
	s.writeLocation()
	return s, issues
}

// State returns a copy of the current state.
func (s *Store) State() State { return s.state.Clone() }

// Link is the canonical query string of the current state.
func (s *Store) Link() string { return s.state.QueryString() }

func (s *Store) Catalog() Catalog { return s.catalog }

// Subscribe registers fn to run synchronously after every effective change. The returned
// func removes the subscription.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
	}
}

// SetFilter inserts f, or replaces the filter with the same FilterID in place.
func (s *Store) SetFilter(f Filter) error {
	if err := s.catalog.CheckFilter(f); err != nil {
		return err
	}
	next := s.state.Clone()
	idx := slices.IndexFunc(next.Filters, func(x Filter) bool { return x.FilterID == f.FilterID })
	if idx >= 0 {
		next.Filters[idx] = f.Clone()
	} else {
		next.Filters = append(next.Filters, f.Clone())
	}
	return s.commitFilters(next)
}

func (s *Store) RemoveFilter(filterID string) error {
	next := s.state.Clone()
	idx := slices.IndexFunc(next.Filters, func(x Filter) bool { return x.FilterID == filterID })
	if idx < 0 {
		return ErrFilterNotFound
	}
	next.Filters = slices.Delete(next.Filters, idx, idx+1)
	return s.commitFilters(next)
}

func (s *Store) ClearFilters() {
	next := s.state.Clone()
	next.Filters = nil
	_ = s.commitFilters(next)
}

func (s *Store) commitFilters(next State) error {
	if filtersEqual(next.Filters, s.state.Filters) {
		return nil
	}
	next.Page = 1
	s.commit(next)
	return nil
}

func (s *Store) SetSort(sorts []Sort) error {
	if err := s.catalog.CheckSort(sorts); err != nil {
		return err
	}
	if slices.Equal(sorts, s.state.Sort) {
		return nil
	}
	next := s.state.Clone()
	next.Sort = slices.Clone(sorts)
	next.Page = 1
	s.commit(next)
	return nil
}

// ToggleSort cycles column through none, ascending, descending and back to none. A newly
// sorted column becomes the primary key.
func (s *Store) ToggleSort(column string) error {
	sorts := slices.Clone(s.state.Sort)
	idx := slices.IndexFunc(sorts, func(k Sort) bool { return k.ColumnID == column })
	switch {
	case idx < 0:
		sorts = append([]Sort{{ColumnID: column}}, sorts...)
	case !sorts[idx].Desc:
		sorts[idx].Desc = true
	default:
		sorts = slices.Delete(sorts, idx, idx+1)
	}
	return s.SetSort(sorts)
}

func (s *Store) SetPage(page int) error {
	if page < 1 {
		return invalid(ParamPage, "must be >= 1, got %d", page)
	}
	next := s.state.Clone()
	next.Page = page
	s.commit(next)
	return nil
}

// NextPage advances unless the current page is the last of pageCount.
func (s *Store) NextPage(pageCount int) bool {
	if s.state.Page >= pageCount {
		return false
	}
	return s.SetPage(s.state.Page+1) == nil
}

func (s *Store) PrevPage() bool {
	if s.state.Page <= 1 {
		return false
	}
	return s.SetPage(s.state.Page-1) == nil
}

func (s *Store) SetPerPage(n int) error {
	if n < 1 || n > MaxPerPage {
		return invalid(ParamPerPage, "must be between 1 and %d, got %d", MaxPerPage, n)
	}
	if n == s.state.PerPage {
		return nil
	}
	next := s.state.Clone()
	next.PerPage = n
	next.Page = 1
	s.commit(next)
	return nil
}

func (s *Store) SetTimeRange(r TimeRange) error {
	if !r.Valid() {
		return invalid(ParamRange, "unknown range %q", string(r))
	}
	if r == s.state.TimeRange {
		return nil
	}
	next := s.state.Clone()
	next.TimeRange = r
	next.Page = 1
	s.commit(next)
	return nil
}

func (s *Store) SetJoinOperator(j JoinOperator) error {
	if !j.Valid() {
		return invalid(ParamJoin, "want and or or, got %q", string(j))
	}
	if j == s.state.JoinOperator {
		return nil
	}
	next := s.state.Clone()
	next.JoinOperator = j
	next.Page = 1
	s.commit(next)
	return nil
}

// Replace swaps in a whole state, e.g. one decoded from a pasted link. Page is kept as given.
func (s *Store) Replace(st State) error {
	if err := st.validate(s.catalog); err != nil {
		return err
	}
	s.commit(st.Clone())
	return nil
}

func (s *Store) commit(next State) {
	next = next.Clone()
	if next.Equal(s.state) {
		return
	}
	s.state = next
	s.writeLocation()
	for _, sub := range slices.Clone(s.subs) {
		sub.fn(s.state.Clone())
	}
}

func (s *Store) writeLocation() {
	if s.loc != nil {
		s.loc.Replace(s.state.QueryString())
	}
}
