package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-Id"
	LocalRequestID  = "request_id"
)

// RequestID preserves an incoming request id or generates one, and echoes it
// back to the client.
func RequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		rid := c.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}

		c.Locals(LocalRequestID, rid)
		c.Set(HeaderRequestID, rid)
		c.Request().Header.Set(HeaderRequestID, rid)

		return c.Next()
	}
}

// RequestIDFromFiber retrieves the request id from Fiber locals.
func RequestIDFromFiber(c fiber.Ctx) (string, bool) {
	s, valid := c.Locals(LocalRequestID).(string)
	return s, valid && s != ""
}
