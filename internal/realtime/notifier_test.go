package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func waitOnline(t *testing.T, h *Hub, id uuid.UUID) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !h.Online(id) {
		if time.Now().After(deadline) {
			t.Fatalf("client for %s never registered", id)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNotifierPushesToOpenSockets(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	userID := uuid.New()
	client := &Client{ID: "c1", UserID: userID, Send: make(chan []byte, 4)}
	hub.RegisterClient(client)
	waitOnline(t, hub, userID)

	n := NewNotifier(hub, nil)
	n.Notify(context.Background(), userID, "bid.accepted", map[string]string{"bid_id": "b1"})
	n.Notify(context.Background(), uuid.New(), "bid.accepted", nil)

	select {
	case raw := <-client.Send:
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.Type != "bid.accepted" {
			t.Fatalf("event type = %q", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	if len(client.Send) != 0 {
		t.Fatal("event for another user leaked to this client")
	}
}

func TestSendToUserSkipsFullBuffers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	userID := uuid.New()
	client := &Client{ID: "c1", UserID: userID, Send: make(chan []byte, 1)}
	hub.RegisterClient(client)
	waitOnline(t, hub, userID)

	if got := hub.SendToUser(userID, "first"); got != 1 {
		t.Fatalf("first send = %d", got)
	}
	if got := hub.SendToUser(userID, "second"); got != 0 {
		t.Fatalf("send into a full buffer = %d", got)
	}

	hub.UnregisterClient(client)
	deadline := time.Now().Add(time.Second)
	for hub.Online(userID) {
		if time.Now().After(deadline) {
			t.Fatal("client never unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNotifierWithoutTransports(t *testing.T) {
	(&Notifier{}).Notify(context.Background(), uuid.New(), "message.new", "hi")
}

func TestNotificationChannel(t *testing.T) {
	id := uuid.MustParse("7f1c1a52-7d0e-4d39-9a53-6b4a2b1f0c11")
	if got := NotificationChannel(id); got != "notifications:7f1c1a52-7d0e-4d39-9a53-6b4a2b1f0c11" {
		t.Fatalf("got %q", got)
	}
}
