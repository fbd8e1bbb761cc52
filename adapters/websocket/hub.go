package websocket

import (
	"sync"

	"github.com/satriahrh/diet-coach/utils/log"
)

// Hub tracks connected clients per member.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{})}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client.memberID] == nil {
		h.clients[client.memberID] = make(map[*Client]struct{})
	}
	h.clients[client.memberID][client] = struct{}{}
	log.WithCtx(client.ctx).Debug("New client registered")
}

// Unregister removes a client from the hub and closes it
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.memberID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, client.memberID)
	}
	client.Close()
	log.WithCtx(client.ctx).Debug("Client unregistered")
}

// IsMemberConnected checks if a member has at least one open connection
func (h *Hub) IsMemberConnected(memberID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[memberID]) > 0
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}
