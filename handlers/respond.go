// handlers/respond.go
package handlers

import (
	"errors"
	"time"

	"proof-of-hygiene/middleware"
	"proof-of-hygiene/models"
	"proof-of-hygiene/services"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps the service error taxonomy onto HTTP.
func statusFor(err error) int {
	var chainErr *services.ChainError
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, services.ErrNotSignedIn), errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrWalletRequired):
		return fiber.StatusPreconditionFailed
	case errors.Is(err, services.ErrNoProvider), errors.Is(err, services.ErrAvatarStorageDisabled):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, services.ErrDuplicate), errors.Is(err, services.ErrGameEnded):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidSignup),
		errors.Is(err, models.ErrInvalidUsername):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrAvatarTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.As(err, &chainErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes an error body with a user-facing notification. Ledger internals
// are not echoed back.
func fail(c *fiber.Ctx, err error, message string) error {
	status := statusFor(err)
	detail := err.Error()
	var ledgerErr *services.LedgerError
	if errors.As(err, &ledgerErr) {
		detail = "storage error"
	}
	return c.Status(status).JSON(fiber.Map{
		"error": detail,
		"notification": services.Notification{
			Level:   services.LevelError,
			Message: message,
			At:      time.Now().UTC(),
		},
	})
}

// sendResult writes an orchestrator Result. Partial success is still 200.
func sendResult(c *fiber.Ctx, res services.Result) error {
	if res.OK {
		return c.JSON(res)
	}
	return c.Status(statusFor(res.Err)).JSON(res)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

// walletFor looks up the caller's connected wallet, nil when none.
func walletFor(wallets *services.WalletRegistry, c *fiber.Ctx) *services.WalletSession {
	session := middleware.SessionFrom(c)
	if session == nil {
		return nil
	}
	ws, ok := wallets.Get(session.UserID)
	if !ok {
		return nil
	}
	return &ws
}
