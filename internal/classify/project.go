package classify

import (
	"path"
	"strings"
)

// Taxonomy is the project-type label assigned to a warehouse.
type Taxonomy string

const (
	TaxonomyFramework       Taxonomy = "framework"
	TaxonomyLibrary         Taxonomy = "library"
	TaxonomyDevelopmentTool Taxonomy = "development_tool"
	TaxonomyApplication     Taxonomy = "application"
	TaxonomyCLITool         Taxonomy = "cli_tool"
)

// RepoMetadata carries the non-tree signals available at classification time.
type RepoMetadata struct {
	Name        string
	Description string
}

// Project assigns a taxonomy label from the catalog's file paths and the
// repository metadata. Signals are evaluated in priority order and the first
// match wins; no signal at all means TaxonomyLibrary. It never fails.
func Project(paths []string, meta RepoMetadata, markers MarkerSet) Taxonomy {
	if markers.empty() {
		markers = DefaultMarkers()
	}
	if matchAny(paths, markers.CLITool, false) {
		return TaxonomyCLITool
	}
	if matchAny(paths, markers.Framework, true) {
		return TaxonomyFramework
	}
	if matchAny(paths, markers.Application, false) {
		return TaxonomyApplication
	}
	if matchAny(paths, markers.DevelopmentTool, false) {
		return TaxonomyDevelopmentTool
	}
	return TaxonomyLibrary
}

// matchAny reports whether any path matches one of the markers. A marker is
// compared against the path's base name; markers containing a '/' are
// compared against the whole repo-relative path. rootOnly restricts matches
// to top-level entries.
func matchAny(paths []string, markers []string, rootOnly bool) bool {
	for _, p := range paths {
		p = strings.TrimPrefix(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		if rootOnly && strings.Contains(p, "/") {
			continue
		}
		base := strings.ToLower(path.Base(p))
		full := strings.ToLower(p)
		for _, m := range markers {
			m = strings.ToLower(strings.TrimSpace(m))
			if m == "" {
				continue
			}
			if strings.Contains(m, "/") {
				if full == m || strings.HasSuffix(full, "/"+m) {
					return true
				}
				continue
			}
			if base == m {
				return true
			}
		}
	}
	return false
}
