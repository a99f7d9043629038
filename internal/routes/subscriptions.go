package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumenpay/lumenpay/internal/wallet"
)

// RegisterSubscriptionRoutes wires live stream management endpoints.
func RegisterSubscriptionRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/accounts/:accountId/subscriptions/transactions", h.WatchAccount)
	r.Post("/accounts/:accountId/subscriptions/payments", h.WatchPayments)
	r.Delete("/subscriptions/:subscriptionId", h.Unwatch)
}
