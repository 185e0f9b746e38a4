package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

const HeaderAPIKey = "X-API-Key"

// APIKey requires every request to carry key in X-API-Key or as a Bearer
// token. An empty key disables the check.
func APIKey(key string) fiber.Handler {
	if key == "" {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	want := sha256.Sum256([]byte(key))

	return func(c *fiber.Ctx) error {
		presented := c.Get(HeaderAPIKey)
		if presented == "" {
			presented = extractBearerToken(c)
		}
		if presented == "" {
			return domain.ErrUnauthorized
		}

		got := sha256.Sum256([]byte(presented))
		if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
			return domain.ErrUnauthorized
		}

		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if auth == "" {
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
