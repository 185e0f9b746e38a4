package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

// RequestID tags every request with a UUID, honoring one sent by the client.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:    HeaderRequestID,
		Generator: uuid.NewString,
	})
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
