package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"repowiki/internal/classify"
)

// Stage is a generation phase; each has its own template family.
type Stage string

const (
	StageCatalogAnalysis    Stage = "catalog_analysis"
	StageDocumentGeneration Stage = "document_generation"
	StageProjectOverview    Stage = "project_overview"
)

// Template is a parameterized prompt. Slots are written {like_this} and
// filled by Render; every slot present in the text is required.
type Template struct {
	Name string
	Text string
}

var slotPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Render substitutes named fields into the template. A slot with no
// matching field is an error; extra fields are ignored.
func (t Template) Render(fields map[string]string) (string, error) {
	var missing []string
	out := slotPattern.ReplaceAllStringFunc(t.Text, func(m string) string {
		key := strings.Trim(m, "{}")
		v, ok := fields[key]
		if !ok {
			missing = append(missing, key)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("template %s: missing fields %v", t.Name, missing)
	}
	return out, nil
}

// Slots returns the named slots the template requires, in order of first
// appearance.
func (t Template) Slots() []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range slotPattern.FindAllStringSubmatch(t.Text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Select picks the template for (taxonomy, stage). Selection never fails:
// when no taxonomy-specific template exists the stage's base template is
// returned.
func Select(tax classify.Taxonomy, stage Stage) Template {
	if byTax, ok := specialized[stage]; ok {
		if t, ok := byTax[tax]; ok {
			return t
		}
	}
	return base[stage]
}
