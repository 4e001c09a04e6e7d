package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/watch"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, room string) *Client {
	return &Client{
		hub:  hub,
		room: room,
		send: make(chan []byte, 256),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(nil)
	go hub.Run(ctx)
	return hub
}

func TestHubRegistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, enum.CollectionOrders)

	// Register client
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[enum.CollectionOrders] == nil {
		t.Fatal("orders room not created")
	}
	if !hub.rooms[enum.CollectionOrders][client] {
		t.Fatal("client not registered in orders room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, enum.CollectionOrders)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms[enum.CollectionOrders] != nil {
		t.Fatal("room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleRoom(t *testing.T) {
	hub := startHub(t)

	client1 := mockClient(hub, enum.CollectionOrders)
	client2 := mockClient(hub, enum.CollectionMenus)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	testPayload := json.RawMessage(`{"collection":"orders"}`)
	hub.Broadcast(enum.CollectionOrders, Event{Type: "orders.updated", Payload: testPayload})

	select {
	case msg := <-client1.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "orders.updated" {
			t.Errorf("expected type 'orders.updated', got '%s'", received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client1 did not receive message")
	}

	select {
	case <-client2.send:
		t.Fatal("client2 should not have received message for a different room")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToMultipleClientsInSameRoom(t *testing.T) {
	hub := startHub(t)

	clients := []*Client{
		mockClient(hub, enum.CollectionCoupons),
		mockClient(hub, enum.CollectionCoupons),
		mockClient(hub, enum.CollectionCoupons),
	}
	for _, c := range clients {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	if got := hub.Clients(enum.CollectionCoupons); got != 3 {
		t.Fatalf("expected 3 clients, got %d", got)
	}

	hub.Broadcast(enum.CollectionCoupons, Event{Type: "coupons.updated", Payload: json.RawMessage(`{}`)})

	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "coupons.updated" {
				t.Errorf("client%d: expected type 'coupons.updated', got '%s'", i+1, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestHubCloseAllOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := mockClient(hub, enum.CollectionOrders)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("hub did not stop")
	}

	if _, ok := <-client.send; ok {
		t.Fatal("expected client send channel closed")
	}
	// Calls after shutdown must not block.
	hub.Broadcast(enum.CollectionOrders, Event{Type: "orders.updated"})
	hub.leave(client)
	if hub.join(mockClient(hub, enum.CollectionOrders)) {
		t.Fatal("join should fail after shutdown")
	}
}

func TestIsRoom(t *testing.T) {
	for _, name := range []string{"orders", "customers", "coupons", "menus", "all"} {
		if !IsRoom(name) {
			t.Errorf("expected %q to be a room", name)
		}
	}
	for _, name := range []string{"", "users", "ORDERS"} {
		if IsRoom(name) {
			t.Errorf("expected %q not to be a room", name)
		}
	}
}

func TestBridgeForwardsBusChanges(t *testing.T) {
	hub := startHub(t)
	bus := watch.NewBus(nil)

	orders := mockClient(hub, enum.CollectionOrders)
	all := mockClient(hub, RoomAll)
	menus := mockClient(hub, enum.CollectionMenus)
	for _, c := range []*Client{orders, all, menus} {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Bridge(ctx, bus, hub)
	for bus.Len() == 0 {
		time.Sleep(time.Millisecond)
	}

	bus.Notify(enum.CollectionOrders)

	for name, c := range map[string]*Client{"orders": orders, "all": all} {
		select {
		case msg := <-c.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("%s: unmarshal error: %v", name, err)
			}
			if received.Type != "orders.updated" {
				t.Errorf("%s: wrong event type: %s", name, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("%s client did not receive change", name)
		}
	}
	select {
	case <-menus.send:
		t.Fatal("menus client should not receive orders change")
	case <-time.After(50 * time.Millisecond):
	}

	// An unscoped change reaches every room.
	bus.Notify("")
	select {
	case msg := <-menus.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("unmarshal error: %v", err)
		}
		if received.Type != "collections.reset" {
			t.Errorf("wrong event type: %s", received.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("menus client did not receive reset")
	}
}

func TestEventsFor(t *testing.T) {
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	evs := eventsFor(watch.Change{Key: enum.CollectionCoupons, At: at})
	if len(evs) != 2 || evs[0].Room != enum.CollectionCoupons || evs[1].Room != RoomAll {
		t.Fatalf("unexpected routing: %+v", evs)
	}
	var p changePayload
	if err := json.Unmarshal(evs[0].Event.Payload, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.Collection != enum.CollectionCoupons || !p.At.Equal(at) {
		t.Errorf("unexpected payload: %+v", p)
	}

	if evs := eventsFor(watch.Change{At: at}); len(evs) != len(enum.Collections)+1 {
		t.Fatalf("expected reset for every room, got %d", len(evs))
	}
}
