// Package progress fans conversion job events out to live subscribers.
package progress

import (
	"sync"
	"time"
)

// Event types published while a batch is processed.
const (
	EventJobStart  = "job:start"
	EventFileStart = "file:start"
	EventFileDone  = "file:done"
	EventJobDone   = "job:done"
)

// Event is one progress notification for a batch job.
type Event struct {
	Type      string  `json:"type"`
	JobID     string  `json:"jobId"`
	Index     int     `json:"index"`
	Total     int     `json:"total"`
	FileName  string  `json:"fileName,omitempty"`
	Status    string  `json:"status,omitempty"`
	Error     string  `json:"error,omitempty"`
	Progress  float64 `json:"progress"`
	Timestamp int64   `json:"timestamp"`
}

// Hub broadcasts events to every subscriber. Slow subscribers drop events
// rather than block conversion.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned func unsubscribes and closes
// the channel; it is safe to call more than once.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers evt to all current subscribers without blocking.
func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
