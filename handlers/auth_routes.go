// handlers/auth_routes.go
package handlers

import (
	"proof-of-hygiene/middleware"
	"proof-of-hygiene/services"

	"github.com/gofiber/fiber/v2"
)

type signUpRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Username *string `json:"username"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token   string            `json:"token"`
	Session *services.Session `json:"session"`
}

func SetupAuthRoutes(app *fiber.App, auth *services.AuthService) {
	requireSession := middleware.SessionMiddleware(auth)

	app.Post("/auth/signup", func(c *fiber.Ctx) error {
		var req signUpRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON body")
		}
		token, session, err := auth.SignUp(c.UserContext(), req.Email, req.Password, req.Username)
		if err != nil {
			return fail(c, err, "Sign up failed")
		}
		return c.Status(fiber.StatusCreated).JSON(sessionResponse{Token: token, Session: session})
	})

	app.Post("/auth/signin", func(c *fiber.Ctx) error {
		var req signInRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON body")
		}
		token, session, err := auth.SignIn(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return fail(c, err, "Sign in failed")
		}
		return c.JSON(sessionResponse{Token: token, Session: session})
	})

	app.Post("/auth/signout", requireSession, func(c *fiber.Ctx) error {
		auth.SignOut(middleware.SessionFrom(c))
		return c.SendStatus(fiber.StatusNoContent)
	})
}
