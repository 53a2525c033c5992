package services

import (
	"sync"
	"time"

	"portfolio-photo-backend/internal/gallery"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// writeTimeout bounds how long a stalled subscriber can hold up a
// broadcast.
const writeTimeout = 10 * time.Second

// EngagementEvent is a message pushed to engagement subscribers.
type EngagementEvent struct {
	Type      string                 `json:"type"`
	Timestamp int64                  `json:"timestamp"`
	Update    *gallery.CounterUpdate `json:"update,omitempty"`
}

// subscriber serializes writes to one connection. The websocket
// library allows only a single concurrent writer per connection, and
// broadcasts arrive from many request goroutines at once.
type subscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *subscriber) send(event EngagementEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(event)
}

// EngagementHub broadcasts live view/like counter changes to connected
// clients (the admin dashboard subscribes to watch engagement in real
// time).
type EngagementHub struct {
	mu          sync.RWMutex
	connections map[string]*subscriber
}

// NewEngagementHub creates a new engagement hub
func NewEngagementHub() *EngagementHub {
	return &EngagementHub{
		connections: make(map[string]*subscriber),
	}
}

// Register registers a subscriber connection under an id
func (h *EngagementHub) Register(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.connections[id]; exists {
		existing.conn.Close()
	}
	h.connections[id] = &subscriber{conn: conn}

	log.Info().Str("conn_id", id).Msg("Engagement subscriber registered")
}

// Unregister closes and removes a subscriber connection
func (h *EngagementHub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, exists := h.connections[id]; exists {
		sub.conn.Close()
		delete(h.connections, id)
		log.Info().Str("conn_id", id).Msg("Engagement subscriber unregistered")
	}
}

// BroadcastCounter pushes one counter change to every subscriber. A
// connection that fails to take the write is dropped.
func (h *EngagementHub) BroadcastCounter(update gallery.CounterUpdate) {
	event := EngagementEvent{
		Type:      "counter_update",
		Timestamp: time.Now().Unix(),
		Update:    &update,
	}

	h.mu.RLock()
	subs := make(map[string]*subscriber, len(h.connections))
	for id, sub := range h.connections {
		subs[id] = sub
	}
	h.mu.RUnlock()

	for id, sub := range subs {
		if err := sub.send(event); err != nil {
			log.Warn().Err(err).Str("conn_id", id).Msg("Dropping engagement subscriber")
			h.Unregister(id)
		}
	}
}

// Close shuts down every subscriber connection
func (h *EngagementHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.connections {
		sub.conn.Close()
		delete(h.connections, id)
	}
}
