package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	fake := &FakeClient{Fn: func(ctx context.Context, prompt string) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}}
	cli := Wrap(fake, Retry(5, time.Millisecond))
	out, err := cli.Complete(context.Background(), "p")
	if err != nil {
		t.Fatal(err)
	}
	if out != "ok" || attempts != 3 {
		t.Fatalf("out=%q attempts=%d", out, attempts)
	}
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	attempts := 0
	fake := &FakeClient{Fn: func(ctx context.Context, prompt string) (string, error) {
		attempts++
		return "", NewPermanentError(errors.New("bad request"))
	}}
	cli := Wrap(fake, Retry(5, time.Millisecond))
	_, err := cli.Complete(context.Background(), "p")
	if err == nil || !IsPermanent(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("permanent error retried %d times", attempts)
	}
}

func TestRetry_ExhaustsAndReturnsLastError(t *testing.T) {
	fake := &FakeClient{Fn: func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("still failing")
	}}
	cli := Wrap(fake, Retry(3, time.Millisecond))
	_, err := cli.Complete(context.Background(), "p")
	if err == nil || err.Error() != "still failing" {
		t.Fatalf("expected last error, got %v", err)
	}
	if fake.Calls() != 3 {
		t.Fatalf("expected 3 attempts, got %d", fake.Calls())
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fake := &FakeClient{Fn: func(ctx context.Context, prompt string) (string, error) {
		cancel()
		return "", errors.New("transient")
	}}
	cli := Wrap(fake, Retry(5, time.Millisecond))
	_, err := cli.Complete(ctx, "p")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
