package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"basehook-cli/internal/model"
	"basehook-cli/internal/query"
)

const DefaultTimeout = 30 * time.Second

// Client talks to a basehook server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

func NewClient(baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server url %q: missing host", baseURL)
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		UserAgent:  "basehook-cli",
	}, nil
}

// Query fetches one page of thread updates.
func (c *Client) Query(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	var resp QueryResponse
	if err := c.do(ctx, http.MethodPost, "/api/query", req, &resp); err != nil {
		return QueryResponse{}, err
	}
	return resp, nil
}

// UpdateStatus sets the status of every row in the request's scope.
func (c *Client) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (UpdateStatusResponse, error) {
	if err := req.Validate(); err != nil {
		return UpdateStatusResponse{}, err
	}
	var resp UpdateStatusResponse
	if err := c.do(ctx, http.MethodPost, "/api/update-status", req, &resp); err != nil {
		return UpdateStatusResponse{}, err
	}
	return resp, nil
}

func (c *Client) ListWebhooks(ctx context.Context) ([]model.Webhook, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/webhooks", nil, &raw); err != nil {
		return nil, err
	}
	var hooks []model.Webhook
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &hooks); err != nil {
			return nil, fmt.Errorf("decode webhooks: %w", err)
		}
		return hooks, nil
	}
	var env struct {
		Webhooks []model.Webhook `json:"webhooks"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode webhooks: %w", err)
	}
	return env.Webhooks, nil
}

func (c *Client) CreateWebhook(ctx context.Context, w model.Webhook) (model.Webhook, error) {
	if strings.TrimSpace(w.Name) == "" {
		return model.Webhook{}, errors.New("webhook name is required")
	}
	var out model.Webhook
	if err := c.do(ctx, http.MethodPost, "/api/webhooks", w, &out); err != nil {
		return model.Webhook{}, err
	}
	if out.Name == "" {
		out = w
	}
	return out, nil
}

func (c *Client) UpdateWebhook(ctx context.Context, name string, w model.Webhook) (model.Webhook, error) {
	if strings.TrimSpace(name) == "" {
		return model.Webhook{}, errors.New("webhook name is required")
	}
	var out model.Webhook
	if err := c.do(ctx, http.MethodPut, "/api/webhooks/"+url.PathEscape(name), w, &out); err != nil {
		return model.Webhook{}, err
	}
	if out.Name == "" {
		out = w
		out.Name = name
	}
	return out, nil
}

// Metrics returns status counts bucketed over r.
func (c *Client) Metrics(ctx context.Context, r query.TimeRange) ([]model.MetricPoint, error) {
	if r == "" {
		r = query.RangeAll
	}
	var resp metricsResponse
	if err := c.do(ctx, http.MethodGet, "/api/metrics?range="+url.QueryEscape(string(r)), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Points, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
