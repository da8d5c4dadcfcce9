package handlers

import (
	"plant-backend/internal/models"
	"plant-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog/log"
)

// FeedHandler streams plant events to a websocket client. Inbound messages
// are read only to notice when the client goes away.
func FeedHandler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		id, events := hub.Subscribe()
		defer func() {
			hub.Unsubscribe(id)
			c.Close()
		}()

		if err := utils.SendJSON(c, models.PlantEvent{
			Event:   models.EventConnected,
			Message: "Welcome to the plant feed",
		}); err != nil {
			utils.LogError(err, "feed welcome")
			return
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						log.Debug().Err(err).Str("subscriber", id).Msg("feed read")
					}
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case evt, ok := <-events:
				if !ok {
					_ = c.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
					return
				}
				if err := utils.SendJSON(c, evt); err != nil {
					utils.LogError(err, "feed write")
					return
				}
			}
		}
	})
}

// WSUpgradeMiddleware upgrades the connection to WebSocket
func WSUpgradeMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
