package utils

import (
	"github.com/gofiber/websocket/v2"
)

// SendJSON writes a JSON payload to a websocket connection. Connections are not
// safe for concurrent writes; the caller must serialize them.
func SendJSON(c *websocket.Conn, payload interface{}) error {
	return c.WriteJSON(payload)
}
