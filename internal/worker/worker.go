package worker

import (
	"context"
	"log"
	"sync"

	"repowiki/internal/pipeline"
)

// TaskKind is the trigger surface: process or reset.
type TaskKind string

const (
	TaskProcess TaskKind = "process"
	TaskReset   TaskKind = "reset"
)

type task struct {
	kind        TaskKind
	warehouseID string
}

// Queue feeds warehouse tasks to a pool of workers driving the
// orchestrator. Enqueue is idempotent: a task identical to one already
// pending or running is dropped.
type Queue struct {
	orch  *pipeline.Orchestrator
	tasks chan task

	mu       sync.Mutex
	inflight map[task]struct{}
	closed   bool

	wg      sync.WaitGroup
	cancel  context.CancelFunc
	started bool
}

func NewQueue(orch *pipeline.Orchestrator, depth int) *Queue {
	if depth <= 0 {
		depth = 64
	}
	return &Queue{
		orch:     orch,
		tasks:    make(chan task, depth),
		inflight: make(map[task]struct{}),
	}
}

// Start launches n workers. Stop cancels in-flight runs cooperatively and
// waits for workers to drain.
func (q *Queue) Start(n int) {
	if q.started {
		return
	}
	q.started = true
	if n <= 0 {
		n = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	for i := 0; i < n; i++ {
		q.wg.Add(1)
		go q.work(ctx)
	}
}

func (q *Queue) Stop() {
	if !q.started {
		return
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	q.cancel()
	close(q.tasks)
	q.wg.Wait()
}

// Enqueue schedules a task. It reports false when the task was dropped as
// a duplicate, the queue is full, or the queue is stopped. The send happens
// under q.mu so it can never race Stop's close of the channel.
func (q *Queue) Enqueue(kind TaskKind, warehouseID string) bool {
	t := task{kind: kind, warehouseID: warehouseID}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	if _, dup := q.inflight[t]; dup {
		return false
	}
	select {
	case q.tasks <- t:
		q.inflight[t] = struct{}{}
		return true
	default:
		return false
	}
}

func (q *Queue) work(ctx context.Context) {
	defer q.wg.Done()
	for t := range q.tasks {
		q.run(ctx, t)
		q.mu.Lock()
		delete(q.inflight, t)
		q.mu.Unlock()
	}
}

func (q *Queue) run(ctx context.Context, t task) {
	switch t.kind {
	case TaskProcess:
		if _, err := q.orch.ProcessWarehouse(ctx, t.warehouseID); err != nil {
			log.Printf("worker: process %s: %v", t.warehouseID, err)
		}
	case TaskReset:
		if err := q.orch.ResetWarehouse(ctx, t.warehouseID); err != nil {
			log.Printf("worker: reset %s: %v", t.warehouseID, err)
		}
	}
}
