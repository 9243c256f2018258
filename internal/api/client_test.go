package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"basehook-cli/internal/model"
	"basehook-cli/internal/query"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL + "/")
	require.NoError(t, err)
	return c
}

func TestClient_QuerySendsStateAndDecodesRows(t *testing.T) {
	t.Parallel()

	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/query", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &got))
		_, _ = io.WriteString(w, `{"updates":[{"id":7,"webhook_name":"gh","thread_id":"t","revision_number":2,"content":{"k":[1,2]},"timestamp":1700000000,"status":"PENDING"}],"total":25,"total_pages":3}`)
	})

	f, err := query.NewFilter("status", query.VariantMultiSelect, query.OpIn, "PENDING")
	require.NoError(t, err)
	st := query.DefaultState()
	st.Filters = []query.Filter{f}
	st.TimeRange = query.Range24h

	resp, err := c.Query(context.Background(), NewQueryRequest(st))
	require.NoError(t, err)

	require.EqualValues(t, 1, got["page"])
	require.EqualValues(t, 10, got["perPage"])
	require.Equal(t, "24h", got["range"])
	require.NotContains(t, got, "joinOperator")
	require.Len(t, got["filters"], 1)

	require.Equal(t, 25, resp.Total)
	require.Equal(t, 3, resp.PageCount(10))
	require.Len(t, resp.Updates, 1)
	require.Equal(t, model.StatusPending, resp.Updates[0].Status)
	require.JSONEq(t, `{"k":[1,2]}`, string(resp.Updates[0].Content))
}

func TestQueryResponse_PageCountFallsBackToCeil(t *testing.T) {
	t.Parallel()

	var resp QueryResponse
	require.NoError(t, json.Unmarshal([]byte(`{"updates":[],"total":25}`), &resp))
	require.Nil(t, resp.TotalPages)
	require.Equal(t, 3, resp.PageCount(10))
	require.Equal(t, 0, QueryResponse{}.PageCount(10))
}

func TestUpdateStatusRequest_ScopeIsExclusive(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(UpdateStatusRequest{Status: "SKIPPED", AllMatching: true})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"SKIPPED","filters":[]}`, string(b))

	b, err = json.Marshal(UpdateStatusRequest{Status: "PENDING", IDs: []int64{1, 2}})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"PENDING","ids":[1,2]}`, string(b))

	require.ErrorIs(t, UpdateStatusRequest{Status: "PENDING"}.Validate(), ErrAmbiguousScope)
	require.ErrorIs(t, UpdateStatusRequest{Status: "PENDING", AllMatching: true, IDs: []int64{1}}.Validate(), ErrAmbiguousScope)
}

func TestClient_UpdateStatusRefusesAmbiguousScope(t *testing.T) {
	t.Parallel()

	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls++ })
	_, err := c.UpdateStatus(context.Background(), UpdateStatusRequest{Status: "SKIPPED"})
	require.ErrorIs(t, err, ErrAmbiguousScope)
	require.Zero(t, calls)
}

func TestClient_StatusErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		body    string
		code    string
		message string
	}{
		{`{"detail":"Webhook not found"}`, "", "Webhook not found"},
		{`{"error":{"code":"bad_filter","message":"unknown column"}}`, "bad_filter", "unknown column"},
		{`upstream exploded`, "", "upstream exploded"},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, tc.body)
		})
		_, err := c.Query(context.Background(), QueryRequest{Page: 1, PerPage: 10})
		var se *StatusError
		require.ErrorAs(t, err, &se)
		require.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
		require.Equal(t, tc.code, se.Code)
		require.Equal(t, tc.message, se.Message)
		require.True(t, IsStatus(err, http.StatusUnprocessableEntity))
	}
}

func TestClient_Webhooks(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/webhooks":
			_, _ = io.WriteString(w, `[{"name":"gh","thread_id_path":["issue","id"],"revision_number_path":["rev"]}]`)
		case r.Method == http.MethodPut && r.URL.Path == "/api/webhooks/gh":
			var in model.Webhook
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			_ = json.NewEncoder(w).Encode(in)
		case r.Method == http.MethodGet && r.URL.Path == "/api/metrics":
			require.Equal(t, "7d", r.URL.Query().Get("range"))
			_, _ = io.WriteString(w, `{"points":[{"timestamp":1,"status":"success","count":4}]}`)
		default:
			http.NotFound(w, r)
		}
	})

	hooks, err := c.ListWebhooks(context.Background())
	require.NoError(t, err)
	require.Equal(t, []model.Webhook{{Name: "gh", ThreadIDPath: []string{"issue", "id"}, RevisionNumberPath: []string{"rev"}}}, hooks)

	updated, err := c.UpdateWebhook(context.Background(), "gh", model.Webhook{Name: "gh", ThreadIDPath: []string{"pr", "id"}})
	require.NoError(t, err)
	require.Equal(t, []string{"pr", "id"}, updated.ThreadIDPath)

	points, err := c.Metrics(context.Background(), query.Range7d)
	require.NoError(t, err)
	require.Equal(t, []model.MetricPoint{{Timestamp: 1, Status: model.StatusSuccess, Count: 4}}, points)

	_, err = c.CreateWebhook(context.Background(), model.Webhook{Name: "new"})
	require.True(t, IsStatus(err, http.StatusNotFound))
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "localhost:8000", "ftp://x", "http://"} {
		_, err := NewClient(raw)
		require.Error(t, err, raw)
	}
}
