package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/metrics"
	"github.com/burgerhub/api/internal/watch"
)

// RoomAll receives changes to every collection.
const RoomAll = "all"

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// roomEvent is an internal struct for routing events to a specific room
type roomEvent struct {
	Room  string
	Event Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by room (a collection key or RoomAll)
	rooms map[string]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *roomEvent

	metrics *metrics.Metrics

	// Closed when Run returns
	done chan struct{}

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance. m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
		metrics:    m,
		done:       make(chan struct{}),
	}
}

// IsRoom reports whether name is a room clients may join.
func IsRoom(name string) bool {
	return name == RoomAll || enum.IsCollection(name)
}

// Run starts the hub's main loop and returns when ctx is done.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()
			h.metrics.WSClientConnected(1)

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.Room] {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.rooms[client.room]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	h.metrics.WSClientConnected(-1)
	// Clean up empty rooms
	if len(clients) == 0 {
		delete(h.rooms, client.room)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// Broadcast sends an event to all clients in room
// This is the public API for handlers to broadcast events
func (h *Hub) Broadcast(room string, event Event) {
	select {
	case h.broadcast <- &roomEvent{Room: room, Event: event}:
	case <-h.done:
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Clients returns the number of clients in room.
func (h *Hub) Clients(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// changePayload is the body of a "<collection>.updated" event.
type changePayload struct {
	Collection string    `json:"collection"`
	At         time.Time `json:"at"`
}

// Bridge forwards change signals from the bus to WebSocket rooms until ctx
// is done. A change to one collection goes to that room and RoomAll; an
// unscoped change (a reset) goes to every room.
func Bridge(ctx context.Context, bus *watch.Bus, hub *Hub) {
	sub := bus.Subscribe("")
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-sub.C():
			if !ok {
				return
			}
			for _, ev := range eventsFor(c) {
				hub.Broadcast(ev.Room, ev.Event)
			}
		}
	}
}

func eventsFor(c watch.Change) []roomEvent {
	if c.Key == "" {
		out := make([]roomEvent, 0, len(enum.Collections)+1)
		for _, key := range append([]string{RoomAll}, enum.Collections...) {
			payload, _ := json.Marshal(changePayload{Collection: key, At: c.At})
			out = append(out, roomEvent{Room: key, Event: Event{Type: "collections.reset", Payload: payload}})
		}
		return out
	}
	payload, _ := json.Marshal(changePayload{Collection: c.Key, At: c.At})
	ev := Event{Type: c.Key + ".updated", Payload: payload}
	return []roomEvent{{Room: c.Key, Event: ev}, {Room: RoomAll, Event: ev}}
}
