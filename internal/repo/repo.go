package repo

import (
	"context"

	"repowiki/internal/catalog"
)

// Source is the read-only repository-access collaborator: it supplies the
// current commit id, a recursive listing, and bounded file contents. The
// pipeline never writes through it.
type Source interface {
	// Head returns the commit identifier the checkout currently points at.
	Head(ctx context.Context) (string, error)
	// List returns the recursive file listing.
	List(ctx context.Context) ([]catalog.Entry, error)
	// Read returns up to limit bytes of a file's content. limit <= 0 means
	// the whole file.
	Read(ctx context.Context, path string, limit int) (string, error)
}
