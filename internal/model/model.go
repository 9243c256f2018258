package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusSuccess, StatusError, StatusSkipped}

// ParseStatus accepts both the lower-case form and the upper-case wire form ("PENDING").
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status: %q", s)
}

// WireValue is the representation the mutation endpoint expects.
func (s Status) WireValue() string {
	return strings.ToUpper(string(s))
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ThreadUpdate is one webhook delivery recorded by the server.
//
// Content is forwarded as-is; nothing in this module inspects its shape.
type ThreadUpdate struct {
	ID             int64           `json:"id"`
	WebhookName    string          `json:"webhook_name"`
	ThreadID       string          `json:"thread_id"`
	RevisionNumber float64         `json:"revision_number"`
	Content        json.RawMessage `json:"content,omitempty"`
	Timestamp      float64         `json:"timestamp"`
	Status         Status          `json:"status"`
	Traceback      *string         `json:"traceback,omitempty"`
}

// Time converts the unix-seconds Timestamp.
func (u ThreadUpdate) Time() time.Time {
	sec, frac := math.Modf(u.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9))
}

type Webhook struct {
	Name               string   `json:"name"`
	ThreadIDPath       []string `json:"thread_id_path"`
	RevisionNumberPath []string `json:"revision_number_path"`
}

type MetricPoint struct {
	Timestamp float64 `json:"timestamp"`
	Status    Status  `json:"status"`
	Count     int     `json:"count"`
}
