package events

import (
	"sync"
	"time"
)

// Event is one progress notification from a pipeline run.
type Event struct {
	WarehouseID string    `json:"warehouseId"`
	RunID       string    `json:"runId,omitempty"`
	State       string    `json:"state,omitempty"`
	Path        string    `json:"path,omitempty"`
	Message     string    `json:"message,omitempty"`
	Time        time.Time `json:"time"`
}

// Publisher is the narrow surface the pipeline publishes through.
type Publisher interface {
	Publish(Event)
}

// Hub fans events out to websocket subscribers. Slow subscribers drop
// events rather than blocking a run.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// subscriber is behind; drop
		}
	}
}

// Subscribe returns a buffered event channel and an unsubscribe func. The
// unsubscribe func is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}
