package llm

import (
	"context"
	"sync/atomic"
)

// FakeClient is an in-memory Client for tests and dry runs. Fn decides the
// response; when nil, every call returns a fixed canned string.
type FakeClient struct {
	Fn    func(ctx context.Context, prompt string) (string, error)
	calls atomic.Int64
}

func (f *FakeClient) Name() string { return "fake" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	if f.Fn != nil {
		return f.Fn(ctx, prompt)
	}
	return "generated text", nil
}

// Calls reports how many times Complete has been invoked.
func (f *FakeClient) Calls() int64 { return f.calls.Load() }
