// Package status carries one-way monitor status events to observers.
package status

import (
	"log/slog"
	"sync"
	"time"
)

// Type classifies an Event.
type Type string

const (
	TypeReady      Type = "ready"
	TypeArmed      Type = "armed"
	TypeMonitoring Type = "monitoring"
	TypeChange     Type = "change"
	TypeStopped    Type = "stopped"
	TypeError      Type = "error"
)

// Event is a coarse status notification for display.
type Event struct {
	Type          Type      `json:"type"`
	Reason        string    `json:"reason,omitempty"`
	SessionID     string    `json:"session_id,omitempty"`
	Region        string    `json:"region,omitempty"`
	ChangePercent float64   `json:"change_percent,omitempty"`
	HashDistance  int       `json:"hash_distance,omitempty"`
	Time          time.Time `json:"time"`
}

// Text renders the event as a single status line, e.g. "error: capture failed".
func (e Event) Text() string {
	if e.Reason == "" {
		return string(e.Type)
	}
	return string(e.Type) + ": " + e.Reason
}

// Hub fans events out to subscribers and keeps a short ring of recent ones.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu        sync.Mutex
	subs      map[int]chan Event
	nextID    int
	recent    []Event
	maxRecent int
	buffer    int
}

// NewHub creates a hub retaining maxRecent events, with per-subscriber buffers of size buffer.
func NewHub(maxRecent, buffer int) *Hub {
	return &Hub{
		subs:      make(map[int]chan Event),
		recent:    make([]Event, 0, maxRecent),
		maxRecent: maxRecent,
		buffer:    buffer,
	}
}

// Publish records e and delivers it to every subscriber.
func (h *Hub) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.recent = append(h.recent, e)
	if len(h.recent) > h.maxRecent {
		h.recent = h.recent[len(h.recent)-h.maxRecent:]
	}

	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			slog.Debug("status subscriber lagging, event dropped", "subscriber", id, "type", e.Type)
		}
	}
}

// Subscribe returns a channel of future events and a cancel func that
// closes it. Cancel is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.buffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

// Recent returns a copy of the retained events, oldest first.
func (h *Hub) Recent() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Event, len(h.recent))
	copy(out, h.recent)
	return out
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
