package handlers

import (
	"net/http"

	"portfolio-photo-backend/internal/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Counter updates are public data; any origin may subscribe.
		return true
	},
}

// WebSocketHandler upgrades engagement subscribers
type WebSocketHandler struct {
	hub *services.EngagementHub
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(hub *services.EngagementHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleEngagement handles GET /ws/engagement
func (h *WebSocketHandler) HandleEngagement(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	connID := uuid.New().String()
	h.hub.Register(connID, conn)

	// Subscribers only listen; the read loop exists to notice the
	// close and to answer pings.
	go func() {
		defer h.hub.Unregister(connID)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
