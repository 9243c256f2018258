package query

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Variant is the value-type category of a filter. It decides which operators are legal.
type Variant string

const (
	VariantText        Variant = "text"
	VariantNumber      Variant = "number"
	VariantRange       Variant = "range"
	VariantDate        Variant = "date"
	VariantDateRange   Variant = "dateRange"
	VariantBoolean     Variant = "boolean"
	VariantSelect      Variant = "select"
	VariantMultiSelect Variant = "multiSelect"
)

// Variants lists every variant in a stable order.
var Variants = []Variant{
	VariantText, VariantNumber, VariantRange, VariantDate,
	VariantDateRange, VariantBoolean, VariantSelect, VariantMultiSelect,
}

// Operator names use the wire spelling the server understands.
type Operator string

const (
	OpILike    Operator = "iLike"
	OpNotILike Operator = "notILike"
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpIn       Operator = "in"
	OpNotIn    Operator = "notIn"
	OpBetween  Operator = "between"
)

var operatorSets = map[Variant][]Operator{
	VariantText:        {OpILike, OpNotILike, OpEq, OpNe},
	VariantNumber:      {OpEq, OpNe, OpGt, OpGte, OpLt, OpLte},
	VariantRange:       {OpBetween},
	VariantDate:        {OpEq, OpNe, OpGt, OpGte, OpLt, OpLte},
	VariantDateRange:   {OpBetween},
	VariantBoolean:     {OpEq},
	VariantSelect:      {OpEq, OpNe},
	VariantMultiSelect: {OpIn, OpNotIn},
}

func (v Variant) Valid() bool {
	_, ok := operatorSets[v]
	return ok
}

// Operators returns the operator set for v (nil for unknown variants).
func (v Variant) Operators() []Operator {
	return slices.Clone(operatorSets[v])
}

// Allows reports whether op belongs to the operator set of v.
func (v Variant) Allows(op Operator) bool {
	return slices.Contains(operatorSets[v], op)
}

// listValued variants carry a JSON array value; the rest carry a single string.
func (v Variant) listValued() bool {
	switch v {
	case VariantRange, VariantDateRange, VariantMultiSelect:
		return true
	}
	return false
}

// Label is the human wording of op for variant v.
func (op Operator) Label(v Variant) string {
	temporal := v == VariantDate || v == VariantDateRange
	switch op {
	case OpILike:
		return "contains"
	case OpNotILike:
		return "does not contain"
	case OpEq:
		return "is"
	case OpNe:
		return "is not"
	case OpGt:
		if temporal {
			return "is after"
		}
		return "greater than"
	case OpGte:
		if temporal {
			return "is on or after"
		}
		return "greater than or equal"
	case OpLt:
		if temporal {
			return "is before"
		}
		return "less than"
	case OpLte:
		if temporal {
			return "is on or before"
		}
		return "less than or equal"
	case OpIn:
		return "is any of"
	case OpNotIn:
		return "is none of"
	case OpBetween:
		return "is between"
	}
	return string(op)
}

// Filter is one filter condition. FilterID identifies the instance; several filters
// may target the same ColumnID.
type Filter struct {
	FilterID string
	ColumnID string
	Variant  Variant
	Operator Operator
	Value    []string
}

// NewFilterID returns a short random id for a filter instance.
func NewFilterID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// NewFilter builds and validates a filter with a fresh FilterID.
func NewFilter(columnID string, variant Variant, op Operator, values ...string) (Filter, error) {
	vals := make([]string, 0, len(values))
	for _, v := range values {
		vals = append(vals, strings.TrimSpace(v))
	}
	f := Filter{
		FilterID: NewFilterID(),
		ColumnID: strings.TrimSpace(columnID),
		Variant:  variant,
		Operator: op,
		Value:    vals,
	}
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// WithOperator returns a copy of f using op, validated against f's variant.
func (f Filter) WithOperator(op Operator) (Filter, error) {
	next := f.Clone()
	next.Operator = op
	if err := next.Validate(); err != nil {
		return f, err
	}
	return next, nil
}

// WithValue returns a copy of f carrying values.
func (f Filter) WithValue(values ...string) (Filter, error) {
	next := f.Clone()
	next.Value = slices.Clone(values)
	if err := next.Validate(); err != nil {
		return f, err
	}
	return next, nil
}

func (f Filter) Clone() Filter {
	f.Value = slices.Clone(f.Value)
	return f
}

func (f Filter) Equal(o Filter) bool {
	return f.FilterID == o.FilterID &&
		f.ColumnID == o.ColumnID &&
		f.Variant == o.Variant &&
		f.Operator == o.Operator &&
		slices.Equal(f.Value, o.Value)
}

// Validate checks the operator against the variant's operator set and the value shape.
// All text must be valid UTF-8 so the filter survives a link round trip. It returns a
// *ValidationError.
func (f Filter) Validate() error {
	if strings.TrimSpace(f.FilterID) == "" {
		return invalid("filterId", "must not be empty")
	}
	if !utf8.ValidString(f.FilterID) {
		return invalid("filterId", "must be valid UTF-8")
	}
	if strings.TrimSpace(f.ColumnID) == "" {
		return invalid("filter column", "must not be empty")
	}
	if !utf8.ValidString(f.ColumnID) {
		return invalid("filter column", "must be valid UTF-8")
	}
	for _, v := range f.Value {
		if !utf8.ValidString(v) {
			return invalid("filter value", "%q is not valid UTF-8", v)
		}
	}
	if !f.Variant.Valid() {
		return invalid("filter variant", "unknown variant %q", string(f.Variant))
	}
	if !f.Variant.Allows(f.Operator) {
		return invalid("filter operator", "%q is not valid for %s filters", string(f.Operator), f.Variant)
	}
	return validateValue(f.Variant, f.Value)
}

func validateValue(v Variant, vals []string) error {
	switch v {
	case VariantText, VariantSelect:
		if len(vals) != 1 {
			return invalid("filter value", "%s filters take exactly one value", v)
		}
		if strings.TrimSpace(vals[0]) == "" {
			return invalid("filter value", "must not be empty")
		}
	case VariantNumber:
		if len(vals) != 1 {
			return invalid("filter value", "number filters take exactly one value")
		}
		if _, err := strconv.ParseFloat(vals[0], 64); err != nil {
			return invalid("filter value", "%q is not a number", vals[0])
		}
	case VariantDate:
		if len(vals) != 1 {
			return invalid("filter value", "date filters take exactly one value")
		}
		if _, err := strconv.ParseInt(vals[0], 10, 64); err != nil {
			return invalid("filter value", "%q is not a unix millisecond timestamp", vals[0])
		}
	case VariantBoolean:
		if len(vals) != 1 || (vals[0] != "true" && vals[0] != "false") {
			return invalid("filter value", "boolean filters take true or false")
		}
	case VariantRange:
		if len(vals) != 2 {
			return invalid("filter value", "range filters take two values")
		}
		lo, err1 := strconv.ParseFloat(vals[0], 64)
		hi, err2 := strconv.ParseFloat(vals[1], 64)
		if err1 != nil || err2 != nil {
			return invalid("filter value", "range bounds must be numbers")
		}
		if lo > hi {
			return invalid("filter value", "range lower bound %s exceeds upper bound %s", vals[0], vals[1])
		}
	case VariantDateRange:
		if len(vals) != 2 {
			return invalid("filter value", "date range filters take two values")
		}
		lo, err1 := strconv.ParseInt(vals[0], 10, 64)
		hi, err2 := strconv.ParseInt(vals[1], 10, 64)
		if err1 != nil || err2 != nil {
			return invalid("filter value", "date range bounds must be unix millisecond timestamps")
		}
		if lo > hi {
			return invalid("filter value", "date range starts after it ends")
		}
	case VariantMultiSelect:
		if len(vals) == 0 {
			return invalid("filter value", "multiSelect filters need at least one value")
		}
		seen := make(map[string]struct{}, len(vals))
		for _, s := range vals {
			if strings.TrimSpace(s) == "" {
				return invalid("filter value", "must not contain empty entries")
			}
			if _, dup := seen[s]; dup {
				return invalid("filter value", "duplicate entry %q", s)
			}
			seen[s] = struct{}{}
		}
	}
	return nil
}

// String renders f for humans, e.g. `status is any of PENDING, ERROR`.
func (f Filter) String() string {
	var val string
	switch f.Variant {
	case VariantRange, VariantDateRange:
		val = strings.Join(f.Value, " and ")
	default:
		val = strings.Join(f.Value, ", ")
	}
	return fmt.Sprintf("%s %s %s", f.ColumnID, f.Operator.Label(f.Variant), val)
}

type filterJSON struct {
	ColumnID string          `json:"id"`
	Value    json.RawMessage `json:"value"`
	Variant  Variant         `json:"variant"`
	Operator Operator        `json:"operator"`
	FilterID string          `json:"filterId"`
}

func (f Filter) MarshalJSON() ([]byte, error) {
	var (
		val []byte
		err error
	)
	if f.Variant.listValued() {
		vals := f.Value
		if vals == nil {
			vals = []string{}
		}
		val, err = json.Marshal(vals)
	} else {
		s := ""
		if len(f.Value) > 0 {
			s = f.Value[0]
		}
		val, err = json.Marshal(s)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(filterJSON{
		ColumnID: f.ColumnID,
		Value:    val,
		Variant:  f.Variant,
		Operator: f.Operator,
		FilterID: f.FilterID,
	})
}

// UnmarshalJSON decodes the wire shape only; callers run Validate.
func (f *Filter) UnmarshalJSON(b []byte) error {
	var w filterJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var vals []string
	raw := strings.TrimSpace(string(w.Value))
	switch {
	case raw == "" || raw == "null":
	case strings.HasPrefix(raw, "["):
		if err := json.Unmarshal(w.Value, &vals); err != nil {
			return fmt.Errorf("filter value: %w", err)
		}
	default:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return fmt.Errorf("filter value: %w", err)
		}
		vals = []string{s}
	}
	*f = Filter{
		FilterID: w.FilterID,
		ColumnID: w.ColumnID,
		Variant:  w.Variant,
		Operator: w.Operator,
		Value:    vals,
	}
	return nil
}
