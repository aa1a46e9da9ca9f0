package adaptor

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ConnServer takes ownership of an upgraded connection for a user.
type ConnServer interface {
	ServeConn(conn *websocket.Conn, userID int64)
}

// Tokens arrive in the query string, so the origin is not used for auth.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub ConnServer
	log *zap.Logger
}

func NewWSHandler(hub ConnServer, log *zap.Logger) *WSHandler {
	return &WSHandler{
		hub: hub,
		log: log.With(zap.String("handler", "ws")),
	}
}

// Connect handles GET /ws?token=...
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		h.log.Warn("WebSocket upgrade failed", zap.Int64("user_id", actor.ID), zap.Error(err))
		return
	}

	h.log.Debug("WebSocket connected", zap.Int64("user_id", actor.ID))
	h.hub.ServeConn(conn, actor.ID)
}
