package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumenpay/lumenpay/internal/account"
)

// RegisterAccountRoutes wires account directory endpoints.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler) {
	r.Post("/accounts", h.Store)
	r.Post("/accounts/generate", h.Generate)
	r.Get("/accounts", h.List)
	r.Get("/accounts/:accountId", h.Get)
	r.Delete("/accounts/:accountId", h.Delete)
}
