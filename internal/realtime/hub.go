package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Hub tracks the live WebSocket connections of each user.
type Hub struct {
	clients map[int64]map[string]*Client
	mu      sync.RWMutex
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[string]*Client),
		log:     log.With(zap.String("component", "hub")),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.UserID]
	if !ok {
		conns = make(map[string]*Client)
		h.clients[c.UserID] = conns
	}
	conns[c.ID] = c

	h.log.Debug("Client registered", zap.Int64("user_id", c.UserID), zap.String("client_id", c.ID))
}

// Unregister removes the client and closes its send channel. It is safe to
// call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := conns[c.ID]; !ok {
		return
	}

	delete(conns, c.ID)
	if len(conns) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.send)

	h.log.Debug("Client unregistered", zap.Int64("user_id", c.UserID), zap.String("client_id", c.ID))
}

// SendToUser queues payload on every connection of userID and returns how
// many accepted it. Connections whose buffer is full are dropped.
func (h *Hub) SendToUser(userID int64, payload []byte) int {
	var (
		delivered int
		slow      []*Client
	)

	h.mu.RLock()
	for _, c := range h.clients[userID] {
		select {
		case c.send <- payload:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("Dropping slow client", zap.Int64("user_id", userID), zap.String("client_id", c.ID))
		h.Unregister(c)
	}

	return delivered
}

func (h *Hub) ConnectedClients(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, conns := range h.clients {
		for _, c := range conns {
			close(c.send)
		}
		delete(h.clients, userID)
	}
}
