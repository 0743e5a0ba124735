package chat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"socket-chat/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the chat UI may be served from anywhere
	},
}

type Handler struct {
	hub        *Hub
	log        logging.Logger
	sendBuffer int
}

func NewHandler(hub *Hub, log logging.Logger, sendBuffer int) *Handler {
	return &Handler{
		hub:        hub,
		log:        log,
		sendBuffer: sendBuffer,
	}
}

// ServeWs upgrades the request and starts the connection's pumps. The
// connection is open but anonymous until it sends user_join.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	// The request context ends when this handler returns; the pumps outlive it.
	ctx := context.WithoutCancel(r.Context())

	client := NewClient(ConnID(uuid.NewString()), h.hub, conn, h.sendBuffer, h.log)
	h.hub.Connect(client)
	h.log.Debug(ctx, "client connected", "conn", client.ID(), "remote", r.RemoteAddr)

	go client.WritePump()
	go client.ReadPump(ctx)
}

// Health reports live connection and user counts.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.hub.Stats())
}
