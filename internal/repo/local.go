package repo

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"repowiki/internal/catalog"
)

// skipDirs are directory names never worth cataloging.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
	".idea":        true,
	".vscode":      true,
}

// Local reads a repository from an on-disk checkout. File previews are
// cached in an LRU keyed by path|limit since the same node content is read
// for multiple generation stages.
type Local struct {
	root     string
	previews *lru.Cache[string, string]
}

func NewLocal(root string) (*Local, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("repo root is required")
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("repo root %q is not a directory", root)
	}
	cache, err := lru.New[string, string](512)
	if err != nil {
		return nil, err
	}
	return &Local{root: filepath.Clean(root), previews: cache}, nil
}

func (l *Local) List(ctx context.Context) ([]catalog.Entry, error) {
	var out []catalog.Entry
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, rerr := filepath.Rel(l.root, p)
		if rerr != nil {
			return rerr
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			out = append(out, catalog.Entry{Path: filepath.ToSlash(rel), IsDir: true})
			return nil
		}
		out = append(out, catalog.Entry{Path: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Local) Read(ctx context.Context, rel string, limit int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel = filepath.ToSlash(strings.TrimPrefix(filepath.Clean(rel), "./"))
	key := fmt.Sprintf("%s|%d", rel, limit)
	if s, ok := l.previews.Get(key); ok {
		return s, nil
	}

	abs := filepath.Join(l.root, filepath.FromSlash(rel))
	// Prefix alone is not containment: "/x/repo2" has prefix "/x/repo".
	if abs != l.root && !strings.HasPrefix(abs, l.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes repository root", rel)
	}
	f, err := os.Open(abs)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var data []byte
	if limit > 0 {
		buf := make([]byte, limit)
		n, rerr := io.ReadFull(f, buf)
		if rerr != nil && rerr != io.EOF && rerr != io.ErrUnexpectedEOF {
			return "", rerr
		}
		data = buf[:n]
	} else {
		data, err = io.ReadAll(f)
		if err != nil {
			return "", err
		}
	}
	s := string(data)
	l.previews.Add(key, s)
	return s, nil
}

// Head resolves the commit id from the checkout's .git metadata without any
// git-protocol work: HEAD either holds the hash directly (detached) or names
// a ref resolved via its loose file or packed-refs.
func (l *Local) Head(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	gitDir := filepath.Join(l.root, ".git")
	head, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	line := strings.TrimSpace(string(head))
	if !strings.HasPrefix(line, "ref:") {
		return line, nil
	}
	ref := strings.TrimSpace(strings.TrimPrefix(line, "ref:"))

	if data, err := os.ReadFile(filepath.Join(gitDir, filepath.FromSlash(ref))); err == nil {
		return strings.TrimSpace(string(data)), nil
	}

	packed, err := os.ReadFile(filepath.Join(gitDir, "packed-refs"))
	if err != nil {
		return "", fmt.Errorf("resolve ref %q: %w", ref, err)
	}
	for _, ln := range strings.Split(string(packed), "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "#") || strings.HasPrefix(ln, "^") {
			continue
		}
		parts := strings.Fields(ln)
		if len(parts) == 2 && parts[1] == ref {
			return parts[0], nil
		}
	}
	return "", fmt.Errorf("ref %q not found", ref)
}
