// internal/realtime/websocket.go
package realtime

import (
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// WebSocketConn wraps websocket.Conn so hub.go does not import websocket.
type WebSocketConn struct {
	Conn *websocket.Conn
}

func NewWebSocketConn(c *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{Conn: c}
}

// ServeWS streams notifications to an authenticated user. The upgrade route
// must run the session middleware first so "userId" is in locals.
func ServeWS(hub *Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		raw, _ := c.Locals("userId").(string)
		userID, err := uuid.Parse(raw)
		if err != nil {
			log.Println("WebSocket: missing session user")
			c.Close()
			return
		}

		client := &Client{
			ID:     uuid.New().String(),
			UserID: userID,
			Conn:   NewWebSocketConn(c),
			Send:   make(chan []byte, 256),
		}
		hub.RegisterClient(client)
		defer hub.UnregisterClient(client)

		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					log.Println("WebSocket write error:", err)
					return
				}
			}
		}()

		// reads only keep the connection alive
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				log.Printf("WebSocket: user %s disconnected: %v", userID, err)
				return
			}
		}
	}
}
