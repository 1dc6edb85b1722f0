package middleware

import (
	"strings"
	"time"

	"pintu/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// RequestTimer logs how long each non-static request took, at debug level.
func RequestTimer(log logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/static") {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		log.Debug("Request handled",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"elapsed", time.Since(start).String(),
		)
		return err
	}
}
