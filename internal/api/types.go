package api

import (
	"encoding/json"
	"errors"

	"basehook-cli/internal/model"
	"basehook-cli/internal/query"
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Page         int                `json:"page"`
	PerPage      int                `json:"perPage"`
	Filters      []query.Filter     `json:"filters,omitempty"`
	Sort         []query.Sort       `json:"sort,omitempty"`
	Range        query.TimeRange    `json:"range,omitempty"`
	JoinOperator query.JoinOperator `json:"joinOperator,omitempty"`
}

// NewQueryRequest maps a view state onto the query body. Default join and range are left out.
func NewQueryRequest(st query.State) QueryRequest {
	req := QueryRequest{
		Page:    st.Page,
		PerPage: st.PerPage,
		Filters: st.Filters,
		Sort:    st.Sort,
	}
	if st.TimeRange != query.RangeAll {
		req.Range = st.TimeRange
	}
	if st.JoinOperator == query.JoinOr {
		req.JoinOperator = query.JoinOr
	}
	return req
}

// QueryResponse is one page of rows plus the total number of matching rows.
// TotalPages is nil when the server did not send it.
type QueryResponse struct {
	Updates    []model.ThreadUpdate `json:"updates"`
	Total      int                  `json:"total"`
	TotalPages *int                 `json:"totalPages,omitempty"`
}

func (r *QueryResponse) UnmarshalJSON(b []byte) error {
	var w struct {
		Updates         []model.ThreadUpdate `json:"updates"`
		Total           int                  `json:"total"`
		TotalPages      *int                 `json:"totalPages"`
		TotalPagesSnake *int                 `json:"total_pages"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	r.Updates = w.Updates
	r.Total = w.Total
	r.TotalPages = w.TotalPages
	if r.TotalPages == nil {
		r.TotalPages = w.TotalPagesSnake
	}
	return nil
}

// PageCount prefers the server's page count and falls back to ceil(total/perPage).
func (r QueryResponse) PageCount(perPage int) int {
	if r.TotalPages != nil && *r.TotalPages >= 0 {
		return *r.TotalPages
	}
	return query.PageCount(r.Total, perPage)
}

var ErrAmbiguousScope = errors.New("update-status: exactly one of ids or filters must be given")

// UpdateStatusRequest is the body of POST /api/update-status. A request is scoped either by
// an explicit id list or, with AllMatching, by filters the server evaluates.
type UpdateStatusRequest struct {
	Status       string
	IDs          []int64
	AllMatching  bool
	Filters      []query.Filter
	Range        query.TimeRange
	JoinOperator query.JoinOperator
}

func (r UpdateStatusRequest) Validate() error {
	if r.Status == "" {
		return errors.New("update-status: status is required")
	}
	if r.AllMatching {
		if len(r.IDs) > 0 {
			return ErrAmbiguousScope
		}
		return nil
	}
	if len(r.IDs) == 0 || len(r.Filters) > 0 || r.Range != "" || r.JoinOperator != "" {
		return ErrAmbiguousScope
	}
	return nil
}

func (r UpdateStatusRequest) MarshalJSON() ([]byte, error) {
	if r.AllMatching {
		filters := r.Filters
		if filters == nil {
			filters = []query.Filter{}
		}
		return json.Marshal(struct {
			Status       string             `json:"status"`
			Filters      []query.Filter     `json:"filters"`
			Range        query.TimeRange    `json:"range,omitempty"`
			JoinOperator query.JoinOperator `json:"joinOperator,omitempty"`
		}{r.Status, filters, r.Range, r.JoinOperator})
	}
	return json.Marshal(struct {
		Status string  `json:"status"`
		IDs    []int64 `json:"ids"`
	}{r.Status, r.IDs})
}

type UpdateStatusResponse struct {
	Updated int `json:"updated"`
}

type metricsResponse struct {
	Points []model.MetricPoint `json:"points"`
}
