package handler

import (
	"sync"

	"github.com/ritik9294/catalog-assistant-v3/internal/listing"
)

// Hub fans rendered views out to websocket subscribers per session.
// Slow subscribers drop old frames instead of blocking the workflow.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan listing.View]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan listing.View]struct{})}
}

// Subscribe registers a listener for one session. The returned cancel
// func must be called exactly once.
func (h *Hub) Subscribe(sessionID string) (<-chan listing.View, func()) {
	ch := make(chan listing.View, 8)
	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan listing.View]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set := h.subs[sessionID]; set != nil {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, sessionID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast delivers a view to every subscriber of the session. When a
// subscriber's buffer is full its oldest frame is discarded first.
func (h *Hub) Broadcast(sessionID string, v listing.View) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[sessionID] {
		select {
		case ch <- v:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}
