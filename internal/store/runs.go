package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Run is the bookkeeping row for one orchestrator pass over a warehouse.
// Task state is otherwise derived from artifact rows; the run row carries
// what derivation cannot: in-flight progress and failure reasons.
type Run struct {
	ID           string
	WarehouseID  string
	CommitID     string
	State        string
	Error        string
	NodeFailures string // JSON list of per-node failure reasons
	StartedAt    time.Time
	FinishedAt   time.Time
}

func (s *Store) StartRun(ctx context.Context, run *Run) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(run.ID) == "" {
		run.ID = uuid.NewString()
	}
	ts := now()
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO runs (id, warehouse_id, commit_id, state, error, node_failures, started_at)
		 VALUES (?, ?, ?, ?, '', '[]', ?)`),
		run.ID, run.WarehouseID, run.CommitID, run.State, ts)
	if err != nil {
		return err
	}
	run.StartedAt = parseTime(ts)
	return nil
}

// UpdateRunState moves the run to a new state without finishing it.
func (s *Store) UpdateRunState(ctx context.Context, runID, state string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE runs SET state = ? WHERE id = ?`), state, runID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// FinishRun records the terminal state, the run-level error (if any), and
// the per-node failure list.
func (s *Store) FinishRun(ctx context.Context, runID, state, runErr, nodeFailures string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(nodeFailures) == "" {
		nodeFailures = "[]"
	}
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE runs SET state = ?, error = ?, node_failures = ?, finished_at = ? WHERE id = ?`),
		state, runErr, nodeFailures, now(), runID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// LatestRun returns the most recent run for a warehouse.
func (s *Store) LatestRun(ctx context.Context, warehouseID string) (*Run, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	var run Run
	var finished sql.NullString
	var started string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, warehouse_id, commit_id, state, error, node_failures, started_at, finished_at
		 FROM runs WHERE warehouse_id = ? ORDER BY started_at DESC LIMIT 1`), warehouseID).
		Scan(&run.ID, &run.WarehouseID, &run.CommitID, &run.State, &run.Error,
			&run.NodeFailures, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	run.StartedAt = parseTime(started)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	return &run, nil
}

// ClearRuns drops run bookkeeping for a warehouse. Reset uses this to
// discard in-flight status while documents and commit history stay put.
func (s *Store) ClearRuns(ctx context.Context, warehouseID string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`DELETE FROM runs WHERE warehouse_id = ?`), warehouseID)
	return err
}
