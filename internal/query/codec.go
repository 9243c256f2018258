package query

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// URL parameter names of a shareable view link.
const (
	ParamPage    = "page"
	ParamPerPage = "perPage"
	ParamFilters = "filters"
	ParamSort    = "sort"
	ParamJoin    = "joinOperator"
	ParamRange   = "range"
)

// Encode serializes s into URL parameters. Page and perPage are always present; the other
// parameters only when they differ from their defaults.
func Encode(s State) url.Values {
	v := url.Values{}
	v.Set(ParamPage, strconv.Itoa(s.Page))
	v.Set(ParamPerPage, strconv.Itoa(s.PerPage))
	if len(s.Filters) > 0 {
		b, err := json.Marshal(s.Filters)
		if err == nil {
			v.Set(ParamFilters, string(b))
		}
	}
	if len(s.Sort) > 0 {
		b, err := json.Marshal(s.Sort)
		if err == nil {
			v.Set(ParamSort, string(b))
		}
	}
	if s.JoinOperator == JoinOr {
		v.Set(ParamJoin, string(JoinOr))
	}
	if s.TimeRange != "" && s.TimeRange != RangeAll {
		v.Set(ParamRange, string(s.TimeRange))
	}
	return v
}

// QueryString is the canonical shareable form of s (keys sorted).
func (s State) QueryString() string {
	return Encode(s).Encode()
}

// Decode rebuilds a State from URL parameters. It never fails: a parameter that is missing,
// malformed or invalid keeps its default and the problem is returned as an issue.
func Decode(v url.Values) (State, []*ValidationError) {
	return decode(v, nil)
}

// DecodeWithCatalog is Decode with filters and sorts also checked against cat.
func DecodeWithCatalog(v url.Values, cat Catalog) (State, []*ValidationError) {
	return decode(v, cat)
}

func decode(v url.Values, cat Catalog) (State, []*ValidationError) {
	st := DefaultState()
	var issues []*ValidationError

	if raw, ok := param(v, ParamPage); ok {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			issues = append(issues, invalid(ParamPage, "%q is not a number", raw))
		case n < 1:
			issues = append(issues, invalid(ParamPage, "must be >= 1, got %d", n))
		default:
			st.Page = n
		}
	}
	if raw, ok := param(v, ParamPerPage); ok {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			issues = append(issues, invalid(ParamPerPage, "%q is not a number", raw))
		case n < 1 || n > MaxPerPage:
			issues = append(issues, invalid(ParamPerPage, "must be between 1 and %d, got %d", MaxPerPage, n))
		default:
			st.PerPage = n
		}
	}
	if raw, ok := param(v, ParamFilters); ok {
		var filters []Filter
		if err := json.Unmarshal([]byte(raw), &filters); err != nil {
			issues = append(issues, invalid(ParamFilters, "malformed JSON: %v", err))
		} else if err := checkFilters(cat, filters); err != nil {
			issues = append(issues, asValidation(ParamFilters, err))
		} else if len(filters) > 0 {
			st.Filters = filters
		}
	}
	if raw, ok := param(v, ParamSort); ok {
		var sorts []Sort
		if err := json.Unmarshal([]byte(raw), &sorts); err != nil {
			issues = append(issues, invalid(ParamSort, "malformed JSON: %v", err))
		} else if err := cat.CheckSort(sorts); err != nil {
			issues = append(issues, asValidation(ParamSort, err))
		} else if len(sorts) > 0 {
			st.Sort = sorts
		}
	}
	if raw, ok := param(v, ParamJoin); ok {
		if j := JoinOperator(raw); j.Valid() {
			st.JoinOperator = j
		} else {
			issues = append(issues, invalid(ParamJoin, "want and or or, got %q", raw))
		}
	}
	if raw, ok := param(v, ParamRange); ok {
		if r := TimeRange(raw); r.Valid() {
			st.TimeRange = r
		} else {
			issues = append(issues, invalid(ParamRange, "unknown range %q", raw))
		}
	}
	return st, issues
}

// ParseLink decodes a bare query string, "?query", or a full URL.
func ParseLink(link string) (State, []*ValidationError) {
	return parseLink(link, nil)
}

// ParseLinkWithCatalog is ParseLink with filters and sorts also checked against cat.
func ParseLinkWithCatalog(link string, cat Catalog) (State, []*ValidationError) {
	return parseLink(link, cat)
}

func parseLink(link string, cat Catalog) (State, []*ValidationError) {
	raw, issue := linkQuery(link)
	if issue != nil {
		st, issues := decode(url.Values{}, cat)
		return st, append([]*ValidationError{issue}, issues...)
	}
	v, err := url.ParseQuery(raw)
	if err != nil {
		// ParseQuery keeps every pair it could decode.
		st, issues := decode(v, cat)
		return st, append([]*ValidationError{invalid("link", "%v", err)}, issues...)
	}
	return decode(v, cat)
}

// linkQuery extracts the query string of a full URL, a "?query" or a bare query string.
// A URL without a query is the default view.
func linkQuery(link string) (string, *ValidationError) {
	raw := strings.TrimSpace(link)
	isHTTP := strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
	switch {
	case strings.Contains(raw, "://"):
		if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
			return u.RawQuery, nil
		}
		if isHTTP {
			if i := strings.IndexByte(raw, '?'); i >= 0 {
				raw = raw[i+1:]
				break
			}
			return "", invalid("link", "%q is not a valid URL", raw)
		}
		if !strings.Contains(raw, "=") {
			return "", invalid("link", "%q is neither a URL nor a query string", raw)
		}
		// A bare query string whose values carry an unescaped "://".
		raw = strings.TrimPrefix(raw, "?")
	default:
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			raw = raw[i+1:]
		}
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	return raw, nil
}

func param(v url.Values, key string) (string, bool) {
	vals, ok := v[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return strings.TrimSpace(vals[0]), true
}

func asValidation(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Reason: err.Error()}
}
