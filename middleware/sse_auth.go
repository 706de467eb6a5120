// middleware/sse_auth.go
package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SSEAuthMiddleware reads the session token from the `token` query param,
// since EventSource cannot send an Authorization header. A header is still
// accepted when present.
//
// Usage:
//
//	app.Get("/notifications/stream", middleware.SSEAuthMiddleware(auth), streamHandler)
func SSEAuthMiddleware(verifier SessionVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			token = strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
		}
		if token == "" {
			log.Printf("[SSEAuth] ❌ missing token for %s", c.Path())
			return unauthorized(c, errors.New("missing token in query"))
		}
		return attach(c, verifier, token)
	}
}
