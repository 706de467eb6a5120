// handlers/game.go
package handlers

import (
	"errors"

	"proof-of-hygiene/middleware"
	"proof-of-hygiene/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(app *fiber.App, verifier middleware.SessionVerifier, games *services.GameService) {
	requireSession := middleware.SessionMiddleware(verifier)

	// 🔓 Public routes
	app.Get("/games", func(c *fiber.Ctx) error {
		list, err := games.ListGames(c.UserContext())
		if err != nil {
			return fail(c, err, "Failed to load games")
		}
		return c.JSON(fiber.Map{"games": list})
	})

	app.Get("/games/:id", func(c *fiber.Ctx) error {
		game, err := games.GetGame(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err, "Game not found")
		}
		return c.JSON(game)
	})

	app.Get("/games/:id/participants", func(c *fiber.Ctx) error {
		participants, err := games.Participants(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err, "Failed to load participants")
		}
		return c.JSON(fiber.Map{"participants": participants})
	})

	// 🔐 Secured routes
	app.Post("/games", requireSession, func(c *fiber.Ctx) error {
		var in services.CreateGameInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid JSON body")
		}
		game, err := games.CreateGame(c.UserContext(), middleware.SessionFrom(c), in)
		if err != nil {
			return fail(c, err, "Failed to create game")
		}
		return c.Status(fiber.StatusCreated).JSON(game)
	})

	app.Post("/games/:id/join", requireSession, func(c *fiber.Ctx) error {
		participant, err := games.JoinGame(c.UserContext(), middleware.SessionFrom(c), c.Params("id"))
		switch {
		case errors.Is(err, services.ErrDuplicate):
			return fail(c, err, "You already joined this game")
		case errors.Is(err, services.ErrGameEnded):
			return fail(c, err, "This game has already ended")
		case err != nil:
			return fail(c, err, "Failed to join game")
		}
		return c.Status(fiber.StatusCreated).JSON(participant)
	})
}
