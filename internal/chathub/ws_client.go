package chathub

import (
	"context"
	"log"
	"sync"
	"time"

	"studybuddy/backend/internal/config"
	"studybuddy/backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

// WebSocketClient implements chathub.Client
type WebSocketClient struct {
	ConnID string
	UserID uint
	Name   string
	Conn   *websocket.Conn
	Hub    *ManagerService
	Send   chan models.Event

	closeOnce sync.Once
}

// NewWebSocketClient wraps an upgraded connection for an authenticated user.
func NewWebSocketClient(conn *websocket.Conn, hub *ManagerService, userID uint, name string) *WebSocketClient {
	return &WebSocketClient{
		ConnID: ulid.Make().String(),
		UserID: userID,
		Name:   name,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan models.Event, config.SendBufferSize),
	}
}

func (c *WebSocketClient) GetConnID() string                   { return c.ConnID }
func (c *WebSocketClient) GetUserID() uint                     { return c.UserID }
func (c *WebSocketClient) GetUserName() string                 { return c.Name }
func (c *WebSocketClient) GetSendChannel() chan<- models.Event { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the Send channel, which stops writePump.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// readPump hands every frame to the hub until the connection fails.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Disconnect(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.MaxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ERROR: Reading from client %s: %v", c.ConnID, err)
			}
			break
		}
		c.Hub.HandleFrame(context.Background(), c, message)
	}
}

// writePump writes events from Send to the socket, one frame per event, and
// keeps the connection alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				// Hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(event); err != nil {
				log.Printf("ERROR: Writing %s event to client %s: %v", event.Name, c.ConnID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
