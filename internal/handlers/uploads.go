package handlers

import (
	"errors"
	"net/http"

	"plant-backend/internal/blob"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// UploadsHandler streams a previously uploaded image from the blob store.
// Upload names are unique, so responses are cacheable forever.
func UploadsHandler(blobs blob.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("name")
		info, rc, err := blobs.Get(c.Context(), name)
		if err != nil {
			if !errors.Is(err, blob.ErrNotFound) {
				log.Warn().Err(err).Str("key", name).Msg("upload lookup failed")
			}
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"msg": "Image not found"})
		}

		ct := info.ContentType
		if ct == "" {
			ct = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, ct)
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
		if !info.LastModified.IsZero() {
			c.Set(fiber.HeaderLastModified, info.LastModified.UTC().Format(http.TimeFormat))
		}

		size := int(info.Size)
		if size <= 0 {
			size = -1
		}
		// the response body stream closes rc once written
		return c.SendStream(rc, size)
	}
}
