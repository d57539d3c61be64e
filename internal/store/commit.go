package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CommitRecord links a generated artifact to the source commit it was
// produced from. Records form an append-only log per (warehouse_id,
// target); a new record supersedes the previous current one, which is kept
// for audit.
type CommitRecord struct {
	ID            string
	WarehouseID   string
	Target        string // "catalog", "doc:<path>", "overview", "minimap"
	CommitID      string
	CommitMessage string
	Title         string
	Author        string
	Current       bool
	LastUpdate    time.Time
}

// NeedsRegeneration reports whether (warehouse, target) has no current
// record or its commit id differs from commitID. Granularity is the single
// repository-level commit id.
func (s *Store) NeedsRegeneration(ctx context.Context, warehouseID, target, commitID string) (bool, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return false, err
	}
	var stored string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT commit_id FROM commit_records
		 WHERE warehouse_id = ? AND target = ? AND current = 1
		 ORDER BY last_update DESC LIMIT 1`), warehouseID, target).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return stored != commitID, nil
}

// CurrentCommit returns the current record for (warehouse, target).
func (s *Store) CurrentCommit(ctx context.Context, warehouseID, target string) (*CommitRecord, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return scanCommitRecord(s.db.QueryRowContext(ctx, s.rebind(
		selectCommitRecord+` WHERE warehouse_id = ? AND target = ? AND current = 1
		 ORDER BY last_update DESC LIMIT 1`), warehouseID, target))
}

// CommitHistory returns all records for (warehouse, target), newest first.
func (s *Store) CommitHistory(ctx context.Context, warehouseID, target string) ([]*CommitRecord, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		selectCommitRecord+` WHERE warehouse_id = ? AND target = ?
		 ORDER BY last_update DESC`), warehouseID, target)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*CommitRecord
	for rows.Next() {
		rec, err := scanCommitRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordCommit supersedes the previous current record for the key and
// inserts rec as the new current one. It participates in the caller's
// transaction so artifact and provenance land together or not at all.
func (s *Store) RecordCommit(ctx context.Context, e execer, rec *CommitRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.NewString()
	}
	ts := now()
	if _, err := e.ExecContext(ctx, s.rebind(
		`UPDATE commit_records SET current = 0
		 WHERE warehouse_id = ? AND target = ? AND current = 1`),
		rec.WarehouseID, rec.Target); err != nil {
		return err
	}
	_, err := e.ExecContext(ctx, s.rebind(
		`INSERT INTO commit_records
			(id, warehouse_id, target, commit_id, commit_message, title, author, current, last_update)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)`),
		rec.ID, rec.WarehouseID, rec.Target, rec.CommitID,
		rec.CommitMessage, rec.Title, rec.Author, ts)
	if err != nil {
		return err
	}
	rec.Current = true
	rec.LastUpdate = parseTime(ts)
	return nil
}

// SupersedeAllCurrent marks every current record of a warehouse as
// non-current. Used by reset: history is preserved but the next run
// regenerates everything.
func (s *Store) SupersedeAllCurrent(ctx context.Context, warehouseID string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE commit_records SET current = 0 WHERE warehouse_id = ? AND current = 1`), warehouseID)
	return err
}

const selectCommitRecord = `SELECT id, warehouse_id, target, commit_id,
	commit_message, title, author, current, last_update FROM commit_records`

func scanCommitRecord(r rowScanner) (*CommitRecord, error) {
	var rec CommitRecord
	var current int
	var last string
	err := r.Scan(&rec.ID, &rec.WarehouseID, &rec.Target, &rec.CommitID,
		&rec.CommitMessage, &rec.Title, &rec.Author, &current, &last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.Current = current != 0
	rec.LastUpdate = parseTime(last)
	return &rec, nil
}
