package llm

import "context"

// Client is the external completion collaborator: prompt in, text out.
type Client interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
	Close() error
}
