package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"portfolio-photo-backend/internal/gallery"
	"portfolio-photo-backend/internal/models"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dialSubscriber connects one subscriber to the hub through a real
// websocket pair and waits until the hub has registered it.
func dialSubscriber(t *testing.T, hub *EngagementHub, id string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		hub.Register(id, conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.After(time.Second)
	for {
		hub.mu.RLock()
		n := len(hub.connections)
		hub.mu.RUnlock()
		if n > 0 {
			return conn
		}
		select {
		case <-deadline:
			t.Fatal("subscriber never registered")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestBroadcastCounterConcurrentRequests(t *testing.T) {
	hub := NewEngagementHub()
	defer hub.Close()
	conn := dialSubscriber(t, hub, "sub-1")

	// Counter updates arrive from one goroutine per HTTP request;
	// writes to the shared connection must come out serialized.
	const (
		writers   = 8
		perWriter = 16
	)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				hub.BroadcastCounter(gallery.CounterUpdate{
					CategoryID: "weddings",
					PhotoID:    "w1",
					Field:      models.CounterViews,
					Value:      i*perWriter + j + 1,
				})
			}
		}(i)
	}
	wg.Wait()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for n := 0; n < writers*perWriter; n++ {
		var event EngagementEvent
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("read event %d: %v", n, err)
		}
		if event.Type != "counter_update" || event.Update == nil {
			t.Fatalf("event %d = %+v", n, event)
		}
		if event.Update.PhotoID != "w1" || event.Update.Field != models.CounterViews {
			t.Fatalf("event %d update = %+v", n, event.Update)
		}
	}
}

func TestBroadcastCounterDropsFailedSubscriber(t *testing.T) {
	hub := NewEngagementHub()
	defer hub.Close()
	conn := dialSubscriber(t, hub, "sub-1")

	// Closing the client's side makes the next write fail; the hub
	// must unregister the subscriber instead of retrying forever.
	conn.Close()

	deadline := time.After(2 * time.Second)
	for {
		hub.BroadcastCounter(gallery.CounterUpdate{
			CategoryID: "weddings",
			PhotoID:    "w1",
			Field:      models.CounterLikes,
			Value:      1,
		})
		hub.mu.RLock()
		n := len(hub.connections)
		hub.mu.RUnlock()
		if n == 0 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("failed subscriber was never dropped")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
