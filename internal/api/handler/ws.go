package handler

import (
	"log"
	"net/http"

	"studybuddy/backend/internal/auth"
	"studybuddy/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The token is the access check for sockets.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades an authenticated request and registers the
// connection with the hub. Rooms are joined afterwards with joinSession
// frames.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Printf("WARNING: WebSocket upgrade failed: %v", err)
		return
	}

	client := chathub.NewWebSocketClient(conn, h.Hub, auth.UserID(c), auth.UserName(c))
	h.Hub.Register(client)
	client.Run()
}
