package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"basehook-cli/internal/config"
	"basehook-cli/internal/query"
)

// viewFlags describe a table view on the command line. Explicit flags override --view.
type viewFlags struct {
	fs *pflag.FlagSet

	link    string
	page    int
	perPage int
	filters []string
	sorts   []string
	join    string
	rng     string
}

func (v *viewFlags) flagSet() *pflag.FlagSet {
	if v.fs != nil {
		return v.fs
	}
	fs := pflag.NewFlagSet("view", pflag.ContinueOnError)
	fs.StringVar(&v.link, "view", "", "Shareable view link (URL, ?query, or bare query string)")
	fs.IntVar(&v.page, "page", 1, "Page number (1-based)")
	fs.IntVar(&v.perPage, "per-page", query.DefaultPerPage, fmt.Sprintf("Rows per page (1-%d)", query.MaxPerPage))
	fs.StringArrayVar(&v.filters, "filter", nil, "Filter column:variant:operator:value[,value] (variant optional; repeatable)")
	fs.StringArrayVar(&v.sorts, "sort", nil, "Sort column[:desc] (repeatable; first is primary)")
	fs.StringVar(&v.join, "join", string(query.JoinAnd), "Combine filters with and|or")
	fs.StringVar(&v.rng, "range", string(query.RangeAll), "Time range (1h|6h|24h|7d|30d|all)")
	v.fs = fs
	return fs
}

// state builds the view. Parameters of --view that fail validation fall back to defaults and
// come back as issues; malformed explicit flags are errors. Overrides go through a query.Store
// so they reset the page the same way the interactive table does; an explicit --page wins.
func (v *viewFlags) state(s config.Settings) (query.State, []*query.ValidationError, error) {
	cat := query.ThreadUpdateColumns

	var (
		store  *query.Store
		issues []*query.ValidationError
	)
	if strings.TrimSpace(v.link) != "" {
		store, issues = query.NewStoreFromLink(v.link, query.WithCatalog(cat))
	} else {
		initial := query.DefaultState()
		initial.PerPage = s.PerPage
		initial.TimeRange = s.Range
		var err error
		if store, err = query.NewStore(initial, query.WithCatalog(cat)); err != nil {
			return query.State{}, nil, err
		}
	}

	changed := func(name string) bool { return v.fs != nil && v.fs.Changed(name) }

	if changed("filter") {
		store.ClearFilters()
		for _, expr := range v.filters {
			f, err := cat.ParseFilterExpr(expr)
			if err != nil {
				return query.State{}, nil, fmt.Errorf("--filter %q: %w", expr, err)
			}
			if err := store.SetFilter(f); err != nil {
				return query.State{}, nil, fmt.Errorf("--filter %q: %w", expr, err)
			}
		}
	}
	if changed("sort") {
		var sorts []query.Sort
		for _, raw := range v.sorts {
			col, dir, _ := strings.Cut(strings.TrimSpace(raw), ":")
			k := query.Sort{ColumnID: col}
			switch strings.ToLower(dir) {
			case "", "asc":
			case "desc":
				k.Desc = true
			default:
				return query.State{}, nil, fmt.Errorf("--sort %q: direction must be asc or desc", raw)
			}
			sorts = append(sorts, k)
		}
		if err := store.SetSort(sorts); err != nil {
			return query.State{}, nil, fmt.Errorf("--sort: %w", err)
		}
	}
	if changed("join") {
		if err := store.SetJoinOperator(query.JoinOperator(strings.ToLower(strings.TrimSpace(v.join)))); err != nil {
			return query.State{}, nil, fmt.Errorf("--join: %w", err)
		}
	}
	if changed("range") {
		if err := store.SetTimeRange(query.TimeRange(strings.TrimSpace(v.rng))); err != nil {
			return query.State{}, nil, fmt.Errorf("--range: %w", err)
		}
	}
	if changed("per-page") {
		if err := store.SetPerPage(v.perPage); err != nil {
			return query.State{}, nil, fmt.Errorf("--per-page: %w", err)
		}
	}
	if changed("page") {
		if err := store.SetPage(v.page); err != nil {
			return query.State{}, nil, fmt.Errorf("--page: %w", err)
		}
	}
	return store.State(), issues, nil
}
