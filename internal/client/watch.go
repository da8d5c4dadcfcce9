package client

import (
	"context"
	"errors"
	"fmt"

	"plant-backend/internal/models"

	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog/log"
)

// Watch subscribes to the live feed at wsURL and calls fn for every event
// until ctx is done or the server closes the feed. A cancelled ctx is not an
// error.
func Watch(ctx context.Context, wsURL string, fn func(models.PlantEvent)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	})
	defer stop()

	log.Debug().Str("url", wsURL).Msg("watching plant feed")
	for {
		var evt models.PlantEvent
		if err := conn.ReadJSON(&evt); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && (closeErr.Code == websocket.CloseNormalClosure || closeErr.Code == websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read feed: %w", err)
		}
		fn(evt)
	}
}
