package events

import (
	"testing"
	"time"
)

func TestHub_PublishSubscribe(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe()
	defer unsub()

	h.Publish(Event{WarehouseID: "w1", State: "generating", Path: "a.go"})

	select {
	case ev := <-ch:
		if ev.WarehouseID != "w1" || ev.Path != "a.go" {
			t.Fatalf("unexpected event: %+v", ev)
		}
		if ev.Time.IsZero() {
			t.Fatal("publish must stamp the event time")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	_, unsub := h.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			h.Publish(Event{WarehouseID: "w1"})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe()
	unsub()
	if _, ok := <-ch; ok {
		t.Fatal("channel must be closed after unsubscribe")
	}
	// Publishing after unsubscribe must not panic.
	h.Publish(Event{WarehouseID: "w1"})
	// Unsubscribing again must not panic either.
	unsub()
}
