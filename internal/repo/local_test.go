package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLocal_ListSkipsNoise(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.go", "package a")
	writeFile(t, root, "README.md", "# hi")
	writeFile(t, root, "node_modules/x/index.js", "x")
	writeFile(t, root, ".git/HEAD", "abc123")

	l, err := NewLocal(root)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := l.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	paths := map[string]bool{}
	for _, e := range entries {
		paths[e.Path] = true
	}
	if !paths["src/a.go"] || !paths["README.md"] || !paths["src"] {
		t.Fatalf("missing expected entries: %v", paths)
	}
	for p := range paths {
		if p == ".git" || p == "node_modules" {
			t.Fatalf("skip dir %q leaked into listing", p)
		}
	}
}

func TestLocal_ReadLimit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.txt", "0123456789")

	l, err := NewLocal(root)
	if err != nil {
		t.Fatal(err)
	}
	got, err := l.Read(context.Background(), "big.txt", 4)
	if err != nil {
		t.Fatal(err)
	}
	if got != "0123" {
		t.Fatalf("Read limit 4 = %q", got)
	}
	full, err := l.Read(context.Background(), "big.txt", 0)
	if err != nil {
		t.Fatal(err)
	}
	if full != "0123456789" {
		t.Fatalf("Read full = %q", full)
	}
	// Cached path returns the same value.
	again, err := l.Read(context.Background(), "big.txt", 4)
	if err != nil {
		t.Fatal(err)
	}
	if again != "0123" {
		t.Fatalf("cached Read = %q", again)
	}
}

func TestLocal_ReadEscapeRejected(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")
	l, err := NewLocal(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Read(context.Background(), "../outside.txt", 0); err == nil {
		t.Fatal("expected error for path escaping root")
	}
}

func TestLocal_ReadSiblingPrefixRejected(t *testing.T) {
	// A sibling directory sharing the root's name as a prefix must not
	// satisfy the containment check.
	base := t.TempDir()
	root := filepath.Join(base, "repo")
	writeFile(t, root, "a.txt", "a")
	writeFile(t, base, "repo2/secret.txt", "leaked")

	l, err := NewLocal(root)
	if err != nil {
		t.Fatal(err)
	}
	if got, err := l.Read(context.Background(), "../repo2/secret.txt", 0); err == nil {
		t.Fatalf("expected error for sibling-prefix escape, read %q", got)
	}
}

func TestLocal_HeadDetachedAndRef(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, ".git/HEAD", "deadbeef\n")

	l, err := NewLocal(root)
	if err != nil {
		t.Fatal(err)
	}
	head, err := l.Head(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if head != "deadbeef" {
		t.Fatalf("detached head = %q", head)
	}

	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main\n")
	writeFile(t, root, ".git/refs/heads/main", "cafe0001\n")
	head, err = l.Head(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if head != "cafe0001" {
		t.Fatalf("ref head = %q", head)
	}
}
