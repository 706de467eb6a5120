// handlers/hygiene_routes.go
package handlers

import (
	"context"

	"proof-of-hygiene/middleware"
	"proof-of-hygiene/services"

	"github.com/gofiber/fiber/v2"
)

const chainActionsLimit = 50

type chainActionFunc func(ctx context.Context, session *services.Session, wallet *services.WalletSession) services.Result

func SetupHygieneRoutes(app *fiber.App, verifier middleware.SessionVerifier, hygiene *services.HygieneService, wallets *services.WalletRegistry, audit services.ChainActionStore) {
	requireSession := middleware.SessionMiddleware(verifier)

	// 🔐 Dual write: ledger first, chain second.
	app.Post("/showers", requireSession, func(c *fiber.Ctx) error {
		res := hygiene.LogShower(c.UserContext(), middleware.SessionFrom(c), walletFor(wallets, c))
		return sendResult(c, res)
	})

	chainRoutes := map[string]chainActionFunc{
		"/chain/join":   hygiene.Join,
		"/chain/slash":  hygiene.Slash,
		"/chain/reward": hygiene.RewardClean,
		"/chain/exit":   hygiene.Exit,
	}
	for path, run := range chainRoutes {
		app.Post(path, requireSession, func(c *fiber.Ctx) error {
			return sendResult(c, run(c.UserContext(), middleware.SessionFrom(c), walletFor(wallets, c)))
		})
	}

	app.Get("/chain/actions", requireSession, func(c *fiber.Ctx) error {
		actions, err := audit.ListChainActions(c.UserContext(), services.Query{
			Filters: map[string]any{"user_id": middleware.SessionFrom(c).UserID},
			OrderBy: "created_at",
			Desc:    true,
			Limit:   chainActionsLimit,
		})
		if err != nil {
			return fail(c, err, "Failed to load chain activity")
		}
		return c.JSON(fiber.Map{"actions": actions})
	})
}
