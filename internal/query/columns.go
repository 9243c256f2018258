package query

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Column describes one filterable/sortable column of a table.
type Column struct {
	ID       string
	Label    string
	Variants []Variant
	Options  []string
	Sortable bool
}

// Catalog is the set of columns a view may filter or sort on.
type Catalog []Column

// ThreadUpdateColumns is the catalog of the thread update table.
var ThreadUpdateColumns = Catalog{
	{ID: "id", Label: "ID", Variants: []Variant{VariantNumber}, Sortable: true},
	{ID: "webhook_name", Label: "Webhook", Variants: []Variant{VariantText, VariantSelect}, Sortable: true},
	{ID: "thread_id", Label: "Thread", Variants: []Variant{VariantText}, Sortable: true},
	{ID: "revision_number", Label: "Revision", Variants: []Variant{VariantNumber, VariantRange}, Sortable: true},
	{ID: "timestamp", Label: "Timestamp", Variants: []Variant{VariantDate, VariantDateRange}, Sortable: true},
	{
		ID:       "status",
		Label:    "Status",
		Variants: []Variant{VariantMultiSelect, VariantSelect},
		Options:  []string{"PENDING", "SUCCESS", "ERROR", "SKIPPED"},
		Sortable: true,
	},
	{ID: "content", Label: "Content"},
}

func (c Catalog) Lookup(id string) (Column, bool) {
	for _, col := range c {
		if col.ID == id {
			return col, true
		}
	}
	return Column{}, false
}

// SortableIDs lists the sortable column ids in catalog order.
func (c Catalog) SortableIDs() []string {
	out := make([]string, 0, len(c))
	for _, col := range c {
		if col.Sortable {
			out = append(out, col.ID)
		}
	}
	return out
}

// CheckFilter validates f and its fit with the catalog.
func (c Catalog) CheckFilter(f Filter) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	col, ok := c.Lookup(f.ColumnID)
	if !ok {
		return invalid("filter column", "unknown column %q", f.ColumnID)
	}
	if !slices.Contains(col.Variants, f.Variant) {
		return invalid("filter variant", "column %s does not support %s filters", col.ID, f.Variant)
	}
	if len(col.Options) > 0 && (f.Variant == VariantSelect || f.Variant == VariantMultiSelect) {
		for _, v := range f.Value {
			if !slices.Contains(col.Options, v) {
				return invalid("filter value", "%q is not an option of %s (want one of %s)", v, col.ID, strings.Join(col.Options, ", "))
			}
		}
	}
	return nil
}

// CheckSort validates a sort list: no empty or duplicate columns, and with a catalog only
// sortable columns.
func (c Catalog) CheckSort(sorts []Sort) error {
	seen := make(map[string]struct{}, len(sorts))
	for _, s := range sorts {
		if strings.TrimSpace(s.ColumnID) == "" {
			return invalid("sort", "column must not be empty")
		}
		if !utf8.ValidString(s.ColumnID) {
			return invalid("sort", "column %q is not valid UTF-8", s.ColumnID)
		}
		if _, dup := seen[s.ColumnID]; dup {
			return invalid("sort", "column %q appears more than once", s.ColumnID)
		}
		seen[s.ColumnID] = struct{}{}
		if c == nil {
			continue
		}
		col, ok := c.Lookup(s.ColumnID)
		if !ok {
			return invalid("sort", "unknown column %q", s.ColumnID)
		}
		if !col.Sortable {
			return invalid("sort", "column %q is not sortable", s.ColumnID)
		}
	}
	return nil
}

// ParseFilterExpr parses `column:variant:operator:value[,value]`. The variant may be left out
// (`status:in:PENDING,ERROR`); it is then the first variant of the column whose operator
// set contains the operator.
func (c Catalog) ParseFilterExpr(expr string) (Filter, error) {
	parts := strings.SplitN(strings.TrimSpace(expr), ":", 4)
	var column, variant, op, value string
	switch len(parts) {
	case 4:
		column, variant, op, value = parts[0], parts[1], parts[2], parts[3]
		// Short form whose value contains a colon, e.g. thread_id:eq:a:b.
		if !Variant(strings.TrimSpace(parts[1])).Valid() {
			column, variant, op, value = parts[0], "", parts[1], parts[2]+":"+parts[3]
		}
	case 3:
		column, op, value = parts[0], parts[1], parts[2]
	default:
		return Filter{}, invalid("filter", "%q: want column:variant:operator:value", expr)
	}
	column = strings.TrimSpace(column)
	if variant == "" {
		col, ok := c.Lookup(column)
		if !ok {
			return Filter{}, invalid("filter column", "unknown column %q", column)
		}
		v := inferVariant(col, Operator(strings.TrimSpace(op)))
		if v == "" {
			return Filter{}, invalid("filter operator", "%q is not valid for column %s", op, column)
		}
		variant = string(v)
	}
	var values []string
	switch Variant(variant) {
	case VariantRange, VariantDateRange, VariantMultiSelect:
		values = strings.Split(value, ",")
	default:
		values = []string{value}
	}
	f, err := NewFilter(column, Variant(strings.TrimSpace(variant)), Operator(strings.TrimSpace(op)), values...)
	if err != nil {
		return Filter{}, err
	}
	if err := c.CheckFilter(f); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func inferVariant(col Column, op Operator) Variant {
	for _, v := range col.Variants {
		if v.Allows(op) {
			return v
		}
	}
	return ""
}
