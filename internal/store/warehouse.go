package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Warehouse is a repository registered for documentation.
type Warehouse struct {
	ID            string
	UserID        string
	Name          string
	Description   string
	Taxonomy      string // empty until classified
	IsActive      bool
	IsPublic      bool
	DocumentCount int
	ViewCount     int
	Config        string // opaque JSON blob
	RepoPath      string // local checkout the pipeline reads from
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// timeLayout pads the fraction to full width so stored strings sort
// chronologically; RFC3339Nano drops trailing zeros and does not.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func now() string { return time.Now().UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// CreateWarehouse registers a warehouse. A missing ID is generated.
func (s *Store) CreateWarehouse(ctx context.Context, w *Warehouse) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("warehouse name is required")
	}
	if strings.TrimSpace(w.ID) == "" {
		w.ID = uuid.NewString()
	}
	ts := now()
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO warehouses
			(id, user_id, name, description, taxonomy, is_active, is_public,
			 document_count, view_count, config, repo_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?, ?)`),
		w.ID, w.UserID, w.Name, w.Description, nullable(w.Taxonomy),
		boolToInt(w.IsActive), boolToInt(w.IsPublic),
		orDefault(w.Config, "{}"), w.RepoPath, ts, ts,
	)
	if err != nil {
		return fmt.Errorf("create warehouse: %w", err)
	}
	w.CreatedAt = parseTime(ts)
	w.UpdatedAt = w.CreatedAt
	return nil
}

func (s *Store) GetWarehouse(ctx context.Context, id string) (*Warehouse, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return scanWarehouse(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, user_id, name, description, taxonomy, is_active, is_public,
		        document_count, view_count, config, repo_path, created_at, updated_at
		 FROM warehouses WHERE id = ?`), id))
}

func (s *Store) ListWarehouses(ctx context.Context) ([]*Warehouse, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, user_id, name, description, taxonomy, is_active, is_public,
		        document_count, view_count, config, repo_path, created_at, updated_at
		 FROM warehouses ORDER BY created_at`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// SetTaxonomy records the classifier's label; only the pipeline calls this.
func (s *Store) SetTaxonomy(ctx context.Context, id, taxonomy string) error {
	return s.updateWarehouse(ctx, id, `taxonomy = ?`, taxonomy)
}

// SetActive toggles the soft-state flag flipped by reset.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	return s.updateWarehouse(ctx, id, `is_active = ?`, boolToInt(active))
}

// IncrementViewCount bumps view_count by one.
func (s *Store) IncrementViewCount(ctx context.Context, id string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE warehouses SET view_count = view_count + 1, updated_at = ? WHERE id = ?`), now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteWarehouse removes the warehouse and cascades to every owned row.
func (s *Store) DeleteWarehouse(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM documents WHERE warehouse_id = ?`,
			`DELETE FROM catalogs WHERE warehouse_id = ?`,
			`DELETE FROM overviews WHERE warehouse_id = ?`,
			`DELETE FROM minimaps WHERE warehouse_id = ?`,
			`DELETE FROM commit_records WHERE warehouse_id = ?`,
			`DELETE FROM runs WHERE warehouse_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, s.rebind(q), id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM warehouses WHERE id = ?`), id)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
}

func (s *Store) updateWarehouse(ctx context.Context, id, setClause string, val any) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE warehouses SET `+setClause+`, updated_at = ? WHERE id = ?`), val, now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// refreshDocumentCount keeps the document_count invariant: always the count
// of non-deleted documents. Runs inside the caller's transaction.
func (s *Store) refreshDocumentCount(ctx context.Context, e execer, warehouseID string) error {
	_, err := e.ExecContext(ctx, s.rebind(
		`UPDATE warehouses SET document_count =
			(SELECT COUNT(*) FROM documents WHERE warehouse_id = ? AND deleted = 0),
		 updated_at = ?
		 WHERE id = ?`), warehouseID, now(), warehouseID)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanWarehouse(r rowScanner) (*Warehouse, error) {
	var w Warehouse
	var taxonomy sql.NullString
	var active, public int
	var created, updated string
	err := r.Scan(&w.ID, &w.UserID, &w.Name, &w.Description, &taxonomy,
		&active, &public, &w.DocumentCount, &w.ViewCount, &w.Config,
		&w.RepoPath, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	w.Taxonomy = taxonomy.String
	w.IsActive = active != 0
	w.IsPublic = public != 0
	w.CreatedAt = parseTime(created)
	w.UpdatedAt = parseTime(updated)
	return &w, nil
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
