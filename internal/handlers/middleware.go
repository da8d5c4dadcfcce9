package handlers

import (
	"errors"
	"strconv"
	"time"

	"plant-backend/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// MetricsMiddleware records request counts and latency labelled by the matched
// route template, so ids never become label values.
func MetricsMiddleware(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		m.IncInFlight()
		defer m.DecInFlight()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		if route == "" || (route == "/" && c.Path() != "/") {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Method(), route, strconv.Itoa(status), time.Since(start))
		return err
	}
}
