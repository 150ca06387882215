// Package events implements the broadcast hub behind the progress
// push channel. Delivery is fire-and-forget: a slow or absent
// observer never blocks a publisher.
package events

import (
	"sync"

	"github.com/coindxter/class-music/internal/models"
)

type Hub struct {
	mu      sync.Mutex
	clients map[chan models.ProgressEvent]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[chan models.ProgressEvent]bool),
	}
}

// Publish fans the event out to every connected observer. Observers
// whose buffer is full miss the event rather than stalling the run.
func (h *Hub) Publish(event models.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a new observer. Late joiners only see events
// published after this call.
func (h *Hub) Subscribe() chan models.ProgressEvent {
	ch := make(chan models.ProgressEvent, 16)
	h.mu.Lock()
	h.clients[ch] = true
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan models.ProgressEvent) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}
