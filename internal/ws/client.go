package ws

import (
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Screens connect from any origin
	},
}

// Client is one screen subscribed to a single room.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	room string
	send chan []byte
}

// subscribedEvent is the first frame a screen receives. It tells the screen
// to load the collection once before relying on change events.
func subscribedEvent(room string) Event {
	payload, _ := json.Marshal(map[string]string{"collection": room})
	return Event{Type: room + ".subscribed", Payload: payload}
}

// ReadPump keeps the read deadline moving on pongs and detects disconnects.
// Screens only listen; anything they send is discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("screen disconnected", "room", c.room, "remote", c.conn.RemoteAddr().String(), "error", err)
			}
			return
		}
	}
}

// WritePump sends the subscription frame and then every room event as its
// own text frame, so each frame is one JSON document. Pings carry the room
// name.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	hello, _ := json.Marshal(subscribedEvent(c.room))
	if err := c.writeFrame(websocket.TextMessage, hello); err != nil {
		return
	}

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub shut down or dropped this client
				c.writeFrame(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.writeFrame(websocket.TextMessage, message); err != nil {
				slog.Debug("screen write failed", "room", c.room, "error", err)
				return
			}

		case <-ticker.C:
			if err := c.writeFrame(websocket.PingMessage, []byte(c.room)); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeFrame(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// ServeWS handles WebSocket requests from screens
// Endpoint: WS /ws/{collection}
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "collection")
	if !IsRoom(room) {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  hub,
		conn: conn,
		room: room,
		send: make(chan []byte, 256),
	}
	if !client.hub.join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
