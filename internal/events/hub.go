package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/kozaktomas/campus-attendance/internal/constants"
)

// Subscription is a listener registered on a Hub.
type Subscription struct {
	ID     string
	Events <-chan Event
}

// Hub broadcasts events to in-process subscribers. Slow subscribers miss
// events instead of blocking the publisher.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]chan Event)}
}

// Subscribe registers a new listener.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Event, constants.EventChannelBuffer)
	id := uuid.NewString()
	h.subscribers[id] = ch
	return &Subscription{ID: id, Events: ch}
}

// Unsubscribe removes the listener and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[sub.ID]; ok {
		delete(h.subscribers, sub.ID)
		close(ch)
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Publish sends e to every subscriber without blocking.
func (h *Hub) Publish(_ context.Context, e Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- e:
		default:
			// Listener buffer full, skip.
		}
	}
	return nil
}
