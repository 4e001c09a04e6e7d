package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/burgerhub/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

func dialRoom(t *testing.T, hub *Hub, room string) *websocket.Conn {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/ws/{collection}", func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + room
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("expected text frame, got %d", msgType)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("frame is not one JSON event: %q: %v", data, err)
	}
	return ev
}

func TestServeWS_SubscribedThenOneFramePerEvent(t *testing.T) {
	hub := startHub(t)
	conn := dialRoom(t, hub, enum.CollectionOrders)

	hello := readEvent(t, conn)
	if hello.Type != "orders.subscribed" {
		t.Fatalf("expected orders.subscribed, got %s", hello.Type)
	}

	deadline := time.Now().Add(time.Second)
	for hub.Clients(enum.CollectionOrders) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never joined the orders room")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast(enum.CollectionOrders, Event{Type: "orders.updated", Payload: json.RawMessage(`{"n":1}`)})
	hub.Broadcast(enum.CollectionOrders, Event{Type: "order.called", Payload: json.RawMessage(`{"n":2}`)})

	first := readEvent(t, conn)
	second := readEvent(t, conn)
	if first.Type != "orders.updated" || second.Type != "order.called" {
		t.Errorf("unexpected events %s, %s", first.Type, second.Type)
	}
}

func TestServeWS_ClientLeavesOnClose(t *testing.T) {
	hub := startHub(t)
	conn := dialRoom(t, hub, enum.CollectionMenus)
	readEvent(t, conn)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.Clients(enum.CollectionMenus) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client still registered after close")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
