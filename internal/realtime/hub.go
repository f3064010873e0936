package realtime

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/models"
)

// Broadcaster pushes events to rooms. Emission is fire-and-forget: an empty or
// unknown room is not an error.
type Broadcaster interface {
	EmitToClass(classID, event string, payload any)
	EmitToRoles(roles []models.UserRole, event string, payload any)
	EmitToUser(userID, event string, payload any)
	EmitToAll(event string, payload any)
	EmitToRooms(rooms []string, event string, payload any)
}

// Gateway is a Broadcaster with a lifecycle.
type Gateway interface {
	Broadcaster
	Start(ctx context.Context) error
	Close() error
}

// Metrics receives gateway instrumentation.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	EventEmitted(event, target string)
}

type nopMetrics struct{}

func (nopMetrics) ConnectionOpened()           {}
func (nopMetrics) ConnectionClosed()           {}
func (nopMetrics) EventEmitted(string, string) {}

// ErrGatewayClosed is returned when registering on a closed hub.
var ErrGatewayClosed = errors.New("realtime gateway closed")

// Hub keeps room membership for local connections. Emissions are serialised under
// the hub lock so every connection observes them in emission order.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	closed  bool

	metrics Metrics
	logger  *zap.Logger
}

// NewHub constructs an empty hub.
func NewHub(metrics Metrics, logger *zap.Logger) *Hub {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		metrics: metrics,
		logger:  logger,
	}
}

// Start satisfies Gateway; the local hub has nothing to start.
func (h *Hub) Start(context.Context) error { return nil }

// Close drops every client with a going-away status and rejects new registrations.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
		c.shutdown(websocket.StatusGoingAway, "server shutting down")
	}
	return nil
}

// Register adds an authenticated client.
func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrGatewayClosed
	}
	h.clients[c] = struct{}{}
	h.metrics.ConnectionOpened()
	return nil
}

// Unregister removes the client and its memberships. Empty rooms disappear.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// Join adds the client to rooms. Joining is idempotent.
func (h *Hub) Join(c *Client, rooms ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	for _, room := range rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[room] = members
		}
		members[c] = struct{}{}
		c.rooms[room] = struct{}{}
	}
}

// SendTo delivers a frame to a single client.
func (h *Hub) SendTo(c *Client, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	h.deliverLocked(c, Frame{Event: event, Data: payload})
}

// EmitToClass emits to class-<classID>.
func (h *Hub) EmitToClass(classID, event string, payload any) {
	h.emit("class", []string{ClassRoom(classID)}, event, payload)
}

// EmitToRoles emits to every role-<role> room; a connection in several is served once.
func (h *Hub) EmitToRoles(roles []models.UserRole, event string, payload any) {
	rooms := make([]string, 0, len(roles))
	for _, role := range roles {
		rooms = append(rooms, RoleRoom(role))
	}
	h.emit("roles", rooms, event, payload)
}

// EmitToUser emits to user-<userID>.
func (h *Hub) EmitToUser(userID, event string, payload any) {
	h.emit("user", []string{UserRoom(userID)}, event, payload)
}

// EmitToAll emits to every registered connection.
func (h *Hub) EmitToAll(event string, payload any) {
	h.emit("all", nil, event, payload)
}

// EmitToRooms emits one event to several rooms; a connection in more than one of
// them is served once.
func (h *Hub) EmitToRooms(rooms []string, event string, payload any) {
	h.emit("rooms", rooms, event, payload)
}

func (h *Hub) emit(target string, rooms []string, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	frame := Frame{Event: event, Data: payload}
	h.metrics.EventEmitted(event, target)

	if target == "all" {
		for c := range h.clients {
			h.deliverLocked(c, frame)
		}
		return
	}

	seen := make(map[*Client]struct{})
	for _, room := range rooms {
		for c := range h.rooms[room] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			h.deliverLocked(c, frame)
		}
	}
}

func (h *Hub) deliverLocked(c *Client, f Frame) {
	if c.enqueue(f) {
		return
	}
	h.logger.Warn("dropping slow websocket consumer",
		zap.String("connection_id", c.id),
		zap.String("user_id", c.principal.ID),
		zap.String("event", f.Event),
	)
	h.removeLocked(c)
	c.shutdown(websocket.StatusTryAgainLater, "send queue full")
}

func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	for room := range c.rooms {
		members := h.rooms[room]
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	c.rooms = make(map[string]struct{})
	delete(h.clients, c)
	h.metrics.ConnectionClosed()
}

// Rooms lists the rooms that currently have members.
func (h *Hub) Rooms() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.rooms))
	for room := range h.rooms {
		out = append(out, room)
	}
	sort.Strings(out)
	return out
}

// RoomSize returns the number of connections in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
