package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumenpay/lumenpay/internal/wallet"
)

// RegisterPaymentRoutes wires transaction submission and history endpoints.
// The rate limiter guards every route that submits to the network.
func RegisterPaymentRoutes(r fiber.Router, h *wallet.Handler, limiter fiber.Handler) {
	r.Post("/accounts/:accountId/refresh", h.Refresh)
	r.Get("/accounts/:accountId/payments", h.Payments)
	r.Post("/payments", limiter, h.SendPayment)
	r.Post("/trustlines", limiter, h.ChangeTrust)
	r.Post("/funding", limiter, h.Fund)
}
