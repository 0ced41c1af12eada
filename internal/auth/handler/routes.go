package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	app.Get("/health", h.Health)

	api := app.Group("/api/auth")
	api.Post("/register", h.Register)
	api.Post("/login", h.Login)
	api.Post("/refresh", h.Refresh)
	api.Post("/logout", h.RequireAuth(), h.Logout)
	api.Get("/me", h.RequireAuth(), h.Me)
}
