package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"repowiki/internal/classify"
)

// Entry is one row of the externally supplied recursive file listing.
type Entry struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

// Node is a classified catalog entry. Directory nodes are structural only
// and carry no kind.
type Node struct {
	Path     string        `json:"path"`
	Name     string        `json:"name"`
	Kind     classify.Kind `json:"kind,omitempty"`
	Dir      bool          `json:"dir,omitempty"`
	Children []*Node       `json:"children,omitempty"`
}

// Tree is the catalog produced from one listing.
type Tree struct {
	Root  *Node `json:"root"`
	Files int   `json:"files"`
}

// Build turns a recursive listing into an ordered catalog tree. Paths are
// normalized to '/'-separated repo-relative form, deduplicated, and sorted
// lexicographically so two runs over the same listing produce byte-identical
// serializations. Intermediate directories are created even when the listing
// omits them. Build performs no I/O.
func Build(entries []Entry) (*Tree, error) {
	root := &Node{Path: "", Name: "", Dir: true}
	nodes := map[string]*Node{"": root}
	files := 0

	norm := make([]Entry, 0, len(entries))
	seen := map[string]bool{}
	for _, e := range entries {
		p := normalize(e.Path)
		if p == "" {
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		norm = append(norm, Entry{Path: p, IsDir: e.IsDir})
	}
	sort.Slice(norm, func(i, j int) bool { return norm[i].Path < norm[j].Path })

	for _, e := range norm {
		parent, err := ensureDirs(nodes, parentOf(e.Path))
		if err != nil {
			return nil, err
		}
		if existing, ok := nodes[e.Path]; ok {
			// A directory created implicitly by a deeper path; a file entry
			// at the same path is a malformed listing.
			if !e.IsDir && existing.Dir {
				return nil, fmt.Errorf("catalog: %q listed as both file and directory", e.Path)
			}
			continue
		}
		n := &Node{Path: e.Path, Dir: e.IsDir}
		if e.IsDir {
			n.Name = lastSegment(e.Path)
		} else {
			name, kind := classify.Path(e.Path)
			n.Name = name
			n.Kind = kind
			files++
		}
		nodes[e.Path] = n
		parent.Children = append(parent.Children, n)
	}

	sortChildren(root)
	return &Tree{Root: root, Files: files}, nil
}

// Serialize renders the tree as canonical JSON. Child ordering is already
// deterministic, so identical listings yield identical bytes.
func (t *Tree) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(t); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Walk visits every file node in lexicographic path order.
func (t *Tree) Walk(fn func(*Node)) {
	if t == nil || t.Root == nil {
		return
	}
	walk(t.Root, fn)
}

// FilePaths returns the paths of all file nodes in traversal order.
func (t *Tree) FilePaths() []string {
	var out []string
	t.Walk(func(n *Node) { out = append(out, n.Path) })
	return out
}

func walk(n *Node, fn func(*Node)) {
	for _, c := range n.Children {
		if c.Dir {
			walk(c, fn)
			continue
		}
		fn(c)
	}
}

func ensureDirs(nodes map[string]*Node, dir string) (*Node, error) {
	if n, ok := nodes[dir]; ok {
		if !n.Dir {
			return nil, fmt.Errorf("catalog: %q listed as both file and directory", dir)
		}
		return n, nil
	}
	parent, err := ensureDirs(nodes, parentOf(dir))
	if err != nil {
		return nil, err
	}
	n := &Node{Path: dir, Name: lastSegment(dir), Dir: true}
	nodes[dir] = n
	parent.Children = append(parent.Children, n)
	return n, nil
}

func sortChildren(n *Node) {
	sort.Slice(n.Children, func(i, j int) bool { return n.Children[i].Path < n.Children[j].Path })
	for _, c := range n.Children {
		if c.Dir {
			sortChildren(c)
		}
	}
}

func normalize(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	p = strings.Trim(p, "/")
	if p == "." {
		return ""
	}
	return p
}

func parentOf(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i]
	}
	return ""
}

func lastSegment(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
