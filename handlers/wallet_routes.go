// handlers/wallet_routes.go
package handlers

import (
	"log"

	"proof-of-hygiene/middleware"
	"proof-of-hygiene/services"

	"github.com/gofiber/fiber/v2"
)

func SetupWalletRoutes(app *fiber.App, verifier middleware.SessionVerifier, connector *services.WalletConnector, wallets *services.WalletRegistry) {
	requireSession := middleware.SessionMiddleware(verifier)

	// 🔐 Connect asks the wallet provider for an account and remembers it for this user.
	app.Post("/wallet/connect", requireSession, func(c *fiber.Ctx) error {
		session := middleware.SessionFrom(c)
		ws, err := connector.Connect(c.UserContext())
		if err != nil {
			log.Printf("❌ wallet connect for %s: %v", session.UserID, err)
			return fail(c, err, "Could not connect wallet")
		}
		wallets.Put(session.UserID, ws)
		return c.JSON(fiber.Map{"wallet": ws})
	})

	app.Get("/wallet", requireSession, func(c *fiber.Ctx) error {
		ws := walletFor(wallets, c)
		available, err := connector.IsConnected(c.UserContext())
		if err != nil {
			log.Printf("⚠️  wallet status: %v", err)
		}
		return c.JSON(fiber.Map{
			"connected":          ws != nil,
			"wallet":             ws,
			"provider_available": available,
		})
	})

	app.Delete("/wallet", requireSession, func(c *fiber.Ctx) error {
		wallets.Remove(middleware.SessionFrom(c).UserID)
		return c.SendStatus(fiber.StatusNoContent)
	})
}
