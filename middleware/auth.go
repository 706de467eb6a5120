// middleware/auth.go
package middleware

import (
	"errors"
	"strings"

	"proof-of-hygiene/services"

	"github.com/gofiber/fiber/v2"
)

const (
	sessionLocal = "session"
	userIDLocal  = "user_id"
)

// SessionVerifier turns a bearer token into a live session.
type SessionVerifier interface {
	Verify(token string) (*services.Session, error)
}

// SessionMiddleware requires a valid "Authorization: Bearer <token>" header and
// attaches the session to the request.
func SessionMiddleware(verifier SessionVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			return unauthorized(c, errors.New("missing bearer token"))
		}
		return attach(c, verifier, strings.TrimSpace(token))
	}
}

func attach(c *fiber.Ctx, verifier SessionVerifier, token string) error {
	session, err := verifier.Verify(token)
	if err != nil {
		return unauthorized(c, err)
	}
	c.Locals(sessionLocal, session)
	c.Locals(userIDLocal, session.UserID)
	return c.Next()
}

func unauthorized(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": err.Error(),
		"notification": services.Notification{
			Level:   services.LevelError,
			Message: "Please sign in first",
		},
	})
}

// SessionFrom returns the request's session, or nil on public routes.
func SessionFrom(c *fiber.Ctx) *services.Session {
	session, _ := c.Locals(sessionLocal).(*services.Session)
	return session
}
