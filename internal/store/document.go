package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document is per-catalog-node generated text.
type Document struct {
	ID          string
	WarehouseID string
	Path        string
	Title       string
	Content     string
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SaveDocumentWithCommit writes the document and its commit record as a
// unit: both land or neither does, so provenance can never dangle.
func (s *Store) SaveDocumentWithCommit(ctx context.Context, doc *Document, rec *CommitRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.upsertDocument(ctx, tx, doc); err != nil {
			return err
		}
		if err := s.RecordCommit(ctx, tx, rec); err != nil {
			return err
		}
		return s.refreshDocumentCount(ctx, tx, doc.WarehouseID)
	})
}

// SaveCatalogWithCommit persists the serialized catalog, its AI analysis,
// and the provenance record transactionally.
func (s *Store) SaveCatalogWithCommit(ctx context.Context, warehouseID, commitID string, tree []byte, analysis string, rec *CommitRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO catalogs (warehouse_id, commit_id, tree, analysis, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (warehouse_id) DO UPDATE SET
				commit_id = excluded.commit_id,
				tree = excluded.tree,
				analysis = excluded.analysis,
				updated_at = excluded.updated_at`),
			warehouseID, commitID, string(tree), analysis, now())
		if err != nil {
			return err
		}
		return s.RecordCommit(ctx, tx, rec)
	})
}

// SaveOverviewWithCommit persists the project overview transactionally with
// its commit record.
func (s *Store) SaveOverviewWithCommit(ctx context.Context, warehouseID, content string, rec *CommitRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO overviews (warehouse_id, content, updated_at)
			 VALUES (?, ?, ?)
			 ON CONFLICT (warehouse_id) DO UPDATE SET
				content = excluded.content,
				updated_at = excluded.updated_at`),
			warehouseID, content, now())
		if err != nil {
			return err
		}
		return s.RecordCommit(ctx, tx, rec)
	})
}

// SaveMiniMapWithCommit persists the derived navigation graph
// transactionally with its commit record.
func (s *Store) SaveMiniMapWithCommit(ctx context.Context, warehouseID string, graph []byte, rec *CommitRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO minimaps (warehouse_id, graph, updated_at)
			 VALUES (?, ?, ?)
			 ON CONFLICT (warehouse_id) DO UPDATE SET
				graph = excluded.graph,
				updated_at = excluded.updated_at`),
			warehouseID, string(graph), now())
		if err != nil {
			return err
		}
		return s.RecordCommit(ctx, tx, rec)
	})
}

func (s *Store) upsertDocument(ctx context.Context, e execer, doc *Document) error {
	if strings.TrimSpace(doc.ID) == "" {
		doc.ID = uuid.NewString()
	}
	ts := now()
	_, err := e.ExecContext(ctx, s.rebind(
		`INSERT INTO documents (id, warehouse_id, path, title, content, deleted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)
		 ON CONFLICT (warehouse_id, path) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			deleted = 0,
			updated_at = excluded.updated_at`),
		doc.ID, doc.WarehouseID, doc.Path, doc.Title, doc.Content, ts, ts)
	return err
}

func (s *Store) GetDocument(ctx context.Context, warehouseID, path string) (*Document, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return scanDocument(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, warehouse_id, path, title, content, deleted, created_at, updated_at
		 FROM documents WHERE warehouse_id = ? AND path = ? AND deleted = 0`),
		warehouseID, path))
}

func (s *Store) ListDocuments(ctx context.Context, warehouseID string) ([]*Document, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, warehouse_id, path, title, content, deleted, created_at, updated_at
		 FROM documents WHERE warehouse_id = ? AND deleted = 0 ORDER BY path`), warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetCatalog returns the serialized catalog, its analysis text, and the
// commit it was built at.
func (s *Store) GetCatalog(ctx context.Context, warehouseID string) (tree []byte, analysis, commitID string, err error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, "", "", err
	}
	var t string
	err = s.db.QueryRowContext(ctx, s.rebind(
		`SELECT tree, analysis, commit_id FROM catalogs WHERE warehouse_id = ?`), warehouseID).
		Scan(&t, &analysis, &commitID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", "", ErrNotFound
	}
	if err != nil {
		return nil, "", "", err
	}
	return []byte(t), analysis, commitID, nil
}

func (s *Store) GetOverview(ctx context.Context, warehouseID string) (string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return "", err
	}
	var content string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT content FROM overviews WHERE warehouse_id = ?`), warehouseID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return content, err
}

func (s *Store) GetMiniMap(ctx context.Context, warehouseID string) ([]byte, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	var graph string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT graph FROM minimaps WHERE warehouse_id = ?`), warehouseID).Scan(&graph)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return []byte(graph), err
}

func scanDocument(r rowScanner) (*Document, error) {
	var d Document
	var deleted int
	var created, updated string
	err := r.Scan(&d.ID, &d.WarehouseID, &d.Path, &d.Title, &d.Content, &deleted, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.Deleted = deleted != 0
	d.CreatedAt = parseTime(created)
	d.UpdatedAt = parseTime(updated)
	return &d, nil
}
