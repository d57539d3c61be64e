package store

import "context"

// Portable DDL: TEXT/INTEGER columns only, timestamps as RFC3339 strings,
// booleans as 0/1. Runs unchanged on sqlite and Postgres.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS warehouses (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL DEFAULT '',
		name           TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		taxonomy       TEXT,
		is_active      INTEGER NOT NULL DEFAULT 1,
		is_public      INTEGER NOT NULL DEFAULT 0,
		document_count INTEGER NOT NULL DEFAULT 0,
		view_count     INTEGER NOT NULL DEFAULT 0,
		config         TEXT NOT NULL DEFAULT '{}',
		repo_path      TEXT NOT NULL DEFAULT '',
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id           TEXT PRIMARY KEY,
		warehouse_id TEXT NOT NULL,
		path         TEXT NOT NULL,
		title        TEXT NOT NULL DEFAULT '',
		content      TEXT NOT NULL DEFAULT '',
		deleted      INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL,
		UNIQUE (warehouse_id, path)
	)`,
	`CREATE TABLE IF NOT EXISTS catalogs (
		warehouse_id TEXT PRIMARY KEY,
		commit_id    TEXT NOT NULL DEFAULT '',
		tree         TEXT NOT NULL,
		analysis     TEXT NOT NULL DEFAULT '',
		updated_at   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS overviews (
		warehouse_id TEXT PRIMARY KEY,
		content      TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS minimaps (
		warehouse_id TEXT PRIMARY KEY,
		graph        TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS commit_records (
		id             TEXT PRIMARY KEY,
		warehouse_id   TEXT NOT NULL,
		target         TEXT NOT NULL,
		commit_id      TEXT NOT NULL,
		commit_message TEXT NOT NULL DEFAULT '',
		title          TEXT NOT NULL DEFAULT '',
		author         TEXT NOT NULL DEFAULT '',
		current        INTEGER NOT NULL DEFAULT 1,
		last_update    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_commit_records_key
		ON commit_records (warehouse_id, target, current)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id            TEXT PRIMARY KEY,
		warehouse_id  TEXT NOT NULL,
		commit_id     TEXT NOT NULL DEFAULT '',
		state         TEXT NOT NULL,
		error         TEXT NOT NULL DEFAULT '',
		node_failures TEXT NOT NULL DEFAULT '[]',
		started_at    TEXT NOT NULL,
		finished_at   TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_warehouse
		ON runs (warehouse_id, started_at)`,
}

func (s *Store) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		for _, stmt := range schemaStatements {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				s.schemaErr = err
				return
			}
		}
	})
	return s.schemaErr
}
