package cli

import (
	"strconv"
	"strings"
	"time"

	"basehook-cli/internal/format"
	"basehook-cli/internal/journal"
	"basehook-cli/internal/model"
	"basehook-cli/internal/query"
)

// updateRows prints as the server's JSON and as a fixed-column table.
type updateRows []model.ThreadUpdate

func (r updateRows) Table() format.Table {
	t := format.Table{Headers: []string{"ID", "WEBHOOK", "THREAD", "REV", "STATUS", "TIME"}}
	for _, u := range r {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(u.ID, 10),
			u.WebhookName,
			u.ThreadID,
			strconv.FormatFloat(u.RevisionNumber, 'f', -1, 64),
			string(u.Status),
			u.Time().Local().Format(time.DateTime),
		})
	}
	return t
}

type webhookRows []model.Webhook

func (r webhookRows) Table() format.Table {
	t := format.Table{Headers: []string{"NAME", "THREAD ID PATH", "REVISION PATH"}}
	for _, w := range r {
		t.Rows = append(t.Rows, []string{w.Name, strings.Join(w.ThreadIDPath, "."), strings.Join(w.RevisionNumberPath, ".")})
	}
	return t
}

type metricRows []model.MetricPoint

func (r metricRows) Table() format.Table {
	t := format.Table{Headers: []string{"TIME", "STATUS", "COUNT"}}
	for _, p := range r {
		t.Rows = append(t.Rows, []string{
			model.ThreadUpdate{Timestamp: p.Timestamp}.Time().Local().Format(time.DateTime),
			string(p.Status),
			strconv.Itoa(p.Count),
		})
	}
	return t
}

type journalRows []journal.Entry

func (r journalRows) Table() format.Table {
	t := format.Table{Headers: []string{"OP", "ACTION", "SCOPE", "STARTED", "OUTCOME", "UPDATED", "ERROR"}}
	for _, e := range r {
		scope := e.Scope
		if e.Scope == journal.ScopeIDs {
			scope = strconv.Itoa(len(e.IDs)) + " ids"
		}
		updated := ""
		if e.Updated != nil {
			updated = strconv.Itoa(*e.Updated)
		}
		t.Rows = append(t.Rows, []string{
			e.ID, e.Action, scope, e.StartedAt.Local().Format(time.DateTime), e.Outcome(), updated, e.Error,
		})
	}
	return t
}

func issueStrings(issues []*query.ValidationError) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Error())
	}
	return out
}
