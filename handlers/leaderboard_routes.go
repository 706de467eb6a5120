// handlers/leaderboard_routes.go
package handlers

import (
	"proof-of-hygiene/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, leaderboard *services.LeaderboardService) {
	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		entries, err := leaderboard.Top(c.UserContext())
		if err != nil {
			return fail(c, err, "Failed to load leaderboard")
		}
		return c.JSON(fiber.Map{"leaderboard": entries})
	})
}
