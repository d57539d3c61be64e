package classify

import (
	"path"
	"strings"
)

// Kind is the semantic category inferred from a file path.
type Kind string

const (
	KindCode          Kind = "code"
	KindDocumentation Kind = "documentation"
	KindConfig        Kind = "config"
	KindImage         Kind = "image"
	KindOther         Kind = "other"
)

// extKinds maps lowercase extensions to kinds. Lookups are total: anything
// not present resolves to KindOther.
var extKinds = map[string]Kind{
	".py":    KindCode,
	".js":    KindCode,
	".jsx":   KindCode,
	".ts":    KindCode,
	".tsx":   KindCode,
	".java":  KindCode,
	".cpp":   KindCode,
	".cc":    KindCode,
	".c":     KindCode,
	".h":     KindCode,
	".hpp":   KindCode,
	".cs":    KindCode,
	".go":    KindCode,
	".rs":    KindCode,
	".rb":    KindCode,
	".php":   KindCode,
	".kt":    KindCode,
	".swift": KindCode,
	".scala": KindCode,
	".sh":    KindCode,
	".sql":   KindCode,

	".md":       KindDocumentation,
	".markdown": KindDocumentation,
	".txt":      KindDocumentation,
	".rst":      KindDocumentation,
	".adoc":     KindDocumentation,

	".json":       KindConfig,
	".yaml":       KindConfig,
	".yml":        KindConfig,
	".xml":        KindConfig,
	".toml":       KindConfig,
	".ini":        KindConfig,
	".env":        KindConfig,
	".properties": KindConfig,

	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".gif":  KindImage,
	".svg":  KindImage,
	".ico":  KindImage,
	".webp": KindImage,
}

// Path classifies a repo-relative file path. It never fails: unknown
// extensions come back as KindOther, and the name defaults to the final
// path segment. Extension matching is case-insensitive.
func Path(p string) (name string, kind Kind) {
	p = strings.TrimSuffix(strings.TrimSpace(p), "/")
	name = path.Base(p)
	if name == "." || name == "/" {
		name = ""
	}
	ext := strings.ToLower(path.Ext(p))
	if k, ok := extKinds[ext]; ok {
		return name, k
	}
	return name, KindOther
}
