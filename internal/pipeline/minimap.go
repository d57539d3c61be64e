package pipeline

import (
	"repowiki/internal/catalog"
	"repowiki/internal/minimap"
)

func buildMiniMap(tree *catalog.Tree, documented map[string]bool) ([]byte, error) {
	return minimap.Build(tree, documented).Serialize()
}
