package minimap

import (
	"bytes"
	"encoding/json"

	"repowiki/internal/catalog"
)

// Map is the navigational graph derived from a catalog: one node per
// catalog entry, one edge per parent/child relation, and a flag on nodes
// that carry a generated document.
type Map struct {
	Nodes []MapNode `json:"nodes"`
	Edges []Edge    `json:"edges"`
}

type MapNode struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Kind   string `json:"kind,omitempty"`
	Dir    bool   `json:"dir,omitempty"`
	HasDoc bool   `json:"has_doc,omitempty"`
}

type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Build derives the map from a catalog tree. documented holds the paths
// that have a generated document. Output order follows the catalog's
// deterministic ordering, so identical inputs serialize identically.
func Build(tree *catalog.Tree, documented map[string]bool) *Map {
	m := &Map{}
	if tree == nil || tree.Root == nil {
		return m
	}
	var visit func(n *catalog.Node)
	visit = func(n *catalog.Node) {
		id := n.Path
		label := n.Name
		if id == "" {
			id = "/"
			label = "/"
		}
		m.Nodes = append(m.Nodes, MapNode{
			ID:     id,
			Label:  label,
			Kind:   string(n.Kind),
			Dir:    n.Dir,
			HasDoc: documented[n.Path],
		})
		for _, c := range n.Children {
			m.Edges = append(m.Edges, Edge{From: id, To: c.Path})
			visit(c)
		}
	}
	visit(tree.Root)
	return m
}

// Serialize renders the map as JSON for storage.
func (m *Map) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
