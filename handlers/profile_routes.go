// handlers/profile_routes.go
package handlers

import (
	"proof-of-hygiene/middleware"
	"proof-of-hygiene/services"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	Username string `json:"username"`
}

func SetupProfileRoutes(app *fiber.App, verifier middleware.SessionVerifier, profiles *services.ProfileService) {
	requireSession := middleware.SessionMiddleware(verifier)

	// 🔓 Public feed
	app.Get("/showers/recent", func(c *fiber.Ctx) error {
		feed, err := profiles.RecentShowers(c.UserContext())
		if err != nil {
			return fail(c, err, "Failed to fetch shower logs")
		}
		return c.JSON(fiber.Map{"showers": feed})
	})

	// 🔐 Personal views
	app.Get("/showers/last", requireSession, func(c *fiber.Ctx) error {
		last, err := profiles.LastShower(c.UserContext(), middleware.SessionFrom(c))
		if err != nil {
			return fail(c, err, "Failed to fetch last shower")
		}
		return c.JSON(last)
	})

	app.Get("/me", requireSession, func(c *fiber.Ctx) error {
		me, err := profiles.Me(c.UserContext(), middleware.SessionFrom(c))
		if err != nil {
			return fail(c, err, "Failed to load profile")
		}
		return c.JSON(me)
	})

	app.Get("/me/history", requireSession, func(c *fiber.Ctx) error {
		history, err := profiles.History(c.UserContext(), middleware.SessionFrom(c))
		if err != nil {
			return fail(c, err, "Failed to load history")
		}
		return c.JSON(fiber.Map{"history": history})
	})

	app.Patch("/me", requireSession, func(c *fiber.Ctx) error {
		var req updateProfileRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON body")
		}
		profile, err := profiles.UpdateUsername(c.UserContext(), middleware.SessionFrom(c), req.Username)
		if err != nil {
			return fail(c, err, "Failed to update profile")
		}
		return c.JSON(profile)
	})

	app.Post("/me/avatar", requireSession, func(c *fiber.Ctx) error {
		header, err := c.FormFile("avatar")
		if err != nil {
			return badRequest(c, "avatar file is required")
		}
		file, err := header.Open()
		if err != nil {
			return badRequest(c, "unreadable avatar file")
		}
		defer file.Close()

		profile, err := profiles.SetAvatar(c.UserContext(), middleware.SessionFrom(c),
			header.Filename, header.Header.Get(fiber.HeaderContentType), file)
		if err != nil {
			return fail(c, err, "Failed to upload avatar")
		}
		return c.JSON(profile)
	})
}
