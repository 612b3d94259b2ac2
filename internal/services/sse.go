package services

import (
	"sync"
)

// SSEHub manages SSE client connections and broadcasts moderation results
type SSEHub struct {
	clients map[string]chan ModerationResult
	mu      sync.RWMutex
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]chan ModerationResult),
	}
}

// Subscribe registers a client and returns its event channel
func (h *SSEHub) Subscribe(clientID string) <-chan ModerationResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan ModerationResult, 100)
	h.clients[clientID] = ch
	return ch
}

func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
}

// Publish broadcasts a result to all clients. Slow clients miss events instead of blocking the worker.
func (h *SSEHub) Publish(result ModerationResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- result:
		default:
		}
	}
}

func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
