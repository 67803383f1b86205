package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes serves /ws/:walkID. Viewers only receive; anything they send
// is read and discarded until the socket closes.
func RegisterRoutes(r fiber.Router, hub *Hub) {
	r.Get("/ws/:walkID", websocket.New(func(c *websocket.Conn) {
		client := hub.Register(c.Params("walkID"))

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}
