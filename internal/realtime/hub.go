// Package realtime pushes snapshot refresh notices to connected browser clients and relays change
// notifications between server instances through Redis.
package realtime

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/snapshot"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Events sent to clients.
const (
	EventSnapshotRefreshed = "snapshot_refreshed"
	EventRefreshFailed     = "refresh_failed"
	EventHello             = "hello"
)

// RefreshNotice tells clients which snapshot they should re-read.
type RefreshNotice struct {
	RefreshedAt time.Time      `json:"refreshed_at"`
	Counts      map[string]int `json:"counts"`
}

// NoticeFor summarizes a State for clients.
func NoticeFor(s snapshot.State) RefreshNotice {
	counts := map[string]int{
		"participants":       len(s.Participants),
		"organizations":      len(s.Organizations),
		"meeting_categories": len(s.MeetingCategories),
		"event_categories":   len(s.EventCategories),
		"meetings":           len(s.Meetings),
		"events":             len(s.Events),
	}
	for _, t := range models.LinkTables {
		counts[t.Name] = len(s.Links[t.Name])
	}
	return RefreshNotice{RefreshedAt: s.RefreshedAt, Counts: counts}
}

// Hub keeps the set of connected clients. Every client sees every notice.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clients: make(map[string]*Client), logger: logger}
}

// Register adds a client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client registered", zap.String("client_id", c.ID), zap.Int("clients", count))
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		close(c.send)
	}
	h.mu.Unlock()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to every client. Clients whose buffer is full are skipped.
func (h *Hub) Broadcast(event string, payload any) {
	msg, err := newMessage(event, payload)
	if err != nil {
		h.logger.Error("marshal broadcast", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("client send buffer full", zap.String("client_id", c.ID))
		}
	}
}

// SendToClient sends an event to one client.
func (h *Hub) SendToClient(clientID, event string, payload any) {
	msg, err := newMessage(event, payload)
	if err != nil {
		h.logger.Error("marshal message", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[clientID]; ok {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// SnapshotRefreshed is registered as a snapshot.Fetcher refresh hook.
func (h *Hub) SnapshotRefreshed(s snapshot.State) {
	h.Broadcast(EventSnapshotRefreshed, NoticeFor(s))
}
