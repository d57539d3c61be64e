package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"repowiki/internal/llm"
	"repowiki/internal/prompt"
)

// ErrTemplateRender marks a missing context field; the node is skipped, not
// retried.
var ErrTemplateRender = errors.New("generate: template render failed")

// ErrGenerationFailed marks an external-call error or empty output.
var ErrGenerationFailed = errors.New("generate: generation failed")

// Context carries the named fields substituted into a template.
type Context map[string]string

// Transform is one link of the ordered pre/post chain around the completion
// call. Pre rewrites the fully rendered prompt before it is sent; Post
// rewrites the model output. Either may be nil.
type Transform struct {
	Name string
	Pre  func(string) string
	Post func(string) string
}

// LanguageDirective pins the response language for the whole run. It is a
// fixed pre-call transform so every call in a run carries the same
// directive.
func LanguageDirective(lang string) Transform {
	lang = strings.TrimSpace(lang)
	return Transform{
		Name: "language_directive",
		Pre: func(p string) string {
			if lang == "" {
				return p
			}
			return p + "\n\nRespond in " + lang + "."
		},
	}
}

// Step renders a template, runs the transform chain, and makes exactly one
// completion call. Retries are the orchestrator's job.
type Step struct {
	Client     llm.Client
	Transforms []Transform
}

// Generate fills tmpl with fields and invokes the completion collaborator
// once. Missing fields surface as ErrTemplateRender; call errors and blank
// output surface as ErrGenerationFailed with the cause wrapped.
func (s *Step) Generate(ctx context.Context, tmpl prompt.Template, fields Context) (string, error) {
	rendered, err := tmpl.Render(fields)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	for _, tr := range s.Transforms {
		if tr.Pre != nil {
			rendered = tr.Pre(rendered)
		}
	}

	out, err := s.Client.Complete(ctx, rendered)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: empty output", ErrGenerationFailed)
	}

	for _, tr := range s.Transforms {
		if tr.Post != nil {
			out = tr.Post(out)
		}
	}
	return out, nil
}
