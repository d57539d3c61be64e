package llm

import (
	"context"
	"time"
)

// Middleware wraps a Client with additional behavior.
type Middleware func(Client) Client

// Wrap applies middlewares outside-in: the first middleware sees the call
// first.
func Wrap(c Client, mws ...Middleware) Client {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

// Retry retries Complete up to maxAttempts with exponential backoff
// starting at baseDelay. Permanent errors are not retried. If the context
// is canceled, it stops immediately.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Client
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Complete(ctx context.Context, prompt string) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		out, err := r.next.Complete(ctx, prompt)
		if err == nil {
			return out, nil
		}
		if IsPermanent(err) {
			return "", err
		}
		last = err
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		time.Sleep(r.base * time.Duration(1<<i))
	}
	return "", last
}
