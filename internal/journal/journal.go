// Package journal records bulk status actions and their outcomes in a local SQLite file.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("journal entry not found")

const (
	ScopeIDs     = "ids"
	ScopeFilters = "filters"
)

// Entry is one bulk action. FinishedAt is nil while the action is in flight.
type Entry struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	Status     string          `json:"status"`
	Scope      string          `json:"scope"`
	IDs        []int64         `json:"ids,omitempty"`
	Filters    json.RawMessage `json:"filters,omitempty"`
	Link       string          `json:"link,omitempty"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
	Updated    *int            `json:"updated,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Outcome is "pending", "ok" or "failed".
func (e Entry) Outcome() string {
	switch {
	case e.FinishedAt == nil:
		return "pending"
	case e.Error != "":
		return "failed"
	}
	return "ok"
}

func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	return json.Marshal(struct {
		plain
		Outcome string `json:"outcome"`
	}{plain(e), e.Outcome()})
}

type Journal struct {
	path string
	db   *sql.DB
}

// Open creates the file (and its directory) if needed and applies the schema.
func Open(ctx context.Context, path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("journal path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the TUI and a concurrent CLI invocation share the file.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{path: path, db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bulk_ops (
			op_id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			status TEXT NOT NULL,
			scope TEXT NOT NULL,
			ids_json TEXT,
			filters_json TEXT,
			link TEXT NOT NULL DEFAULT '',
			started_at_unixms INTEGER NOT NULL,
			finished_at_unixms INTEGER,
			updated INTEGER,
			error TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_bulk_ops_started ON bulk_ops(started_at_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Path() string { return j.path }

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Begin records an action before it is sent.
func (j *Journal) Begin(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("journal entry id is empty")
	}
	var idsJSON, filtersJSON sql.NullString
	if len(e.IDs) > 0 {
		b, err := json.Marshal(e.IDs)
		if err != nil {
			return err
		}
		idsJSON = sql.NullString{String: string(b), Valid: true}
	}
	if len(e.Filters) > 0 {
		filtersJSON = sql.NullString{String: string(e.Filters), Valid: true}
	}
	started := e.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `INSERT INTO bulk_ops
		(op_id, action, status, scope, ids_json, filters_json, link, started_at_unixms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.Status, e.Scope, idsJSON, filtersJSON, e.Link, started.UnixMilli())
	if err != nil {
		return fmt.Errorf("journal begin %s: %w", e.ID, err)
	}
	return nil
}

// Finish records the outcome. failure is empty on success.
func (j *Journal) Finish(ctx context.Context, id string, updated int, failure string) error {
	var upd sql.NullInt64
	if failure == "" {
		upd = sql.NullInt64{Int64: int64(updated), Valid: true}
	}
	res, err := j.db.ExecContext(ctx, `UPDATE bulk_ops
		SET finished_at_unixms = ?, updated = ?, error = ?
		WHERE op_id = ?`,
		time.Now().UnixMilli(), upd, failure, id)
	if err != nil {
		return fmt.Errorf("journal finish %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("journal finish %s: %w", id, ErrNotFound)
	}
	return nil
}

const selectCols = `op_id, action, status, scope, ids_json, filters_json, link,
	started_at_unixms, finished_at_unixms, updated, error`

func (j *Journal) Get(ctx context.Context, id string) (Entry, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+selectCols+` FROM bulk_ops WHERE op_id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `SELECT `+selectCols+` FROM bulk_ops
		ORDER BY started_at_unixms DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e           Entry
		idsJSON     sql.NullString
		filtersJSON sql.NullString
		startedMS   int64
		finishedMS  sql.NullInt64
		updated     sql.NullInt64
	)
	if err := s.Scan(&e.ID, &e.Action, &e.Status, &e.Scope, &idsJSON, &filtersJSON, &e.Link,
		&startedMS, &finishedMS, &updated, &e.Error); err != nil {
		return Entry{}, err
	}
	if idsJSON.Valid && idsJSON.String != "" {
		if err := json.Unmarshal([]byte(idsJSON.String), &e.IDs); err != nil {
			return Entry{}, fmt.Errorf("journal %s ids: %w", e.ID, err)
		}
	}
	if filtersJSON.Valid && filtersJSON.String != "" {
		e.Filters = json.RawMessage(filtersJSON.String)
	}
	e.StartedAt = time.UnixMilli(startedMS)
	if finishedMS.Valid {
		t := time.UnixMilli(finishedMS.Int64)
		e.FinishedAt = &t
	}
	if updated.Valid {
		n := int(updated.Int64)
		e.Updated = &n
	}
	return e, nil
}
