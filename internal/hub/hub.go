package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Client is a single open stream for a user. The SSE handler drains it.
type Client chan []byte

// Hub fans events out to every open stream of a user.
type Hub struct {
	users map[uint]map[Client]struct{}
	mu    sync.RWMutex
	log   *slog.Logger
}

// New creates an empty Hub.
func New(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		users: make(map[uint]map[Client]struct{}),
		log:   log,
	}
}

// Subscribe registers client to receive the user's events.
func (h *Hub) Subscribe(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[Client]struct{})
	}
	h.users[userID][client] = struct{}{}
}

// Unsubscribe removes client and closes its channel.
func (h *Hub) Unsubscribe(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.users[userID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client) // signals the SSE handler to stop
	if len(clients) == 0 {
		delete(h.users, userID)
	}
}

// Publish sends event to all of the user's open streams. Slow clients miss
// the event rather than blocking the publisher.
func (h *Hub) Publish(userID uint, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.users[userID]
	if !ok {
		return
	}
	messageBytes, err := json.Marshal(event)
	if err != nil {
		h.log.Error("hub: encode event", "type", event.Type, "err", err)
		return
	}
	for client := range clients {
		select {
		case client <- messageBytes:
		default:
			h.log.Warn("hub: dropped event for slow client", "user_id", userID, "type", event.Type)
		}
	}
}

// Connected reports how many streams the user has open.
func (h *Hub) Connected(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
