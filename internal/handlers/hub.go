package handlers

import (
	"sync"

	"plant-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// subscriberBuffer is how many events a slow subscriber may fall behind before
// events are dropped for it.
const subscriberBuffer = 32

// Hub fans plant events out to every connected feed subscriber. Each
// subscriber gets its own channel so one slow client never blocks a request.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan models.PlantEvent
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan models.PlantEvent)}
}

// Subscribe registers a new subscriber. The channel is closed on Unsubscribe
// or Close.
func (h *Hub) Subscribe() (string, <-chan models.PlantEvent) {
	id := uuid.NewString()
	ch := make(chan models.PlantEvent, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subs[id] = ch
	return id, ch
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish delivers evt to every subscriber without blocking.
func (h *Hub) Publish(evt models.PlantEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- evt:
		default:
			log.Warn().Str("subscriber", id).Str("event", evt.Event).Msg("feed subscriber lagging, event dropped")
		}
	}
}

// Subscribers returns the number of connected subscribers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
