package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"repowiki/internal/catalog"
	"repowiki/internal/llm"
	"repowiki/internal/pipeline"
	"repowiki/internal/repo"
	"repowiki/internal/store"
)

type staticSource struct{}

func (staticSource) Head(ctx context.Context) (string, error) { return "c1", nil }
func (staticSource) List(ctx context.Context) ([]catalog.Entry, error) {
	return []catalog.Entry{{Path: "a.go"}}, nil
}
func (staticSource) Read(ctx context.Context, path string, limit int) (string, error) {
	return "package a", nil
}

func newQueue(t *testing.T) (*Queue, *store.Store, string) {
	t.Helper()
	s, err := store.Open(store.Options{SQLitePath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	w := &store.Warehouse{Name: "demo", IsActive: true}
	if err := s.CreateWarehouse(context.Background(), w); err != nil {
		t.Fatal(err)
	}
	orch := pipeline.New(pipeline.Deps{
		Store:  s,
		Open:   func(*store.Warehouse) (repo.Source, error) { return staticSource{}, nil },
		Client: &llm.FakeClient{},
	}, pipeline.Config{RetryMax: 1, RetryBase: time.Millisecond})
	return NewQueue(orch, 8), s, w.ID
}

func TestQueue_ProcessesTask(t *testing.T) {
	q, s, wid := newQueue(t)
	q.Start(1)
	defer q.Stop()

	if !q.Enqueue(TaskProcess, wid) {
		t.Fatal("enqueue rejected")
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if docs, err := s.ListDocuments(context.Background(), wid); err == nil && len(docs) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("task was not processed")
}

func TestQueue_DuplicateSuppressed(t *testing.T) {
	q, _, wid := newQueue(t)
	// Not started: tasks stay pending, so the duplicate is observable.
	if !q.Enqueue(TaskProcess, wid) {
		t.Fatal("first enqueue rejected")
	}
	if q.Enqueue(TaskProcess, wid) {
		t.Fatal("duplicate enqueue must be dropped")
	}
	// A different kind for the same warehouse is its own task.
	if !q.Enqueue(TaskReset, wid) {
		t.Fatal("reset enqueue rejected")
	}
}

func TestQueue_EnqueueAfterStop(t *testing.T) {
	q, _, wid := newQueue(t)
	q.Start(1)
	q.Stop()

	// Must refuse, not panic on the closed channel.
	if q.Enqueue(TaskProcess, wid) {
		t.Fatal("enqueue after stop must be dropped")
	}
	// Stop is safe to call again.
	q.Stop()
}
