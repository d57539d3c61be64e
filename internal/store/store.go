package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Store is the persistence gateway for warehouses and their generated
// artifacts. It runs on Postgres when a DSN is configured and on an
// embedded sqlite file otherwise; all SQL is written once with '?'
// placeholders and rebound per driver.
type Store struct {
	db     *sql.DB
	driver string

	schemaOnce sync.Once
	schemaErr  error
}

// Options enumerates the storage knobs. Exactly one backend is chosen:
// PostgresDSN wins when set, otherwise SQLitePath (":memory:" is accepted).
type Options struct {
	PostgresDSN string
	SQLitePath  string
}

func Open(opts Options) (*Store, error) {
	if dsn := strings.TrimSpace(opts.PostgresDSN); dsn != "" {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Store{db: db, driver: "pgx"}, nil
	}

	path := strings.TrimSpace(opts.SQLitePath)
	if path == "" {
		return nil, fmt.Errorf("store: either a postgres DSN or a sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent runs.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, driver: "sqlite"}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind rewrites '?' placeholders to '$n' for the pgx driver.
func (s *Store) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// execer is satisfied by both *sql.DB and *sql.Tx after rebinding.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction and guarantees release on every exit
// path.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
