package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ripple-mobile/ripple_mobile/internal/wallet"
)

// RegisterWalletRoutes wires the PIN-protected account queries.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, pinLimit fiber.Handler) {
	r.Post("/balance", pinLimit, h.Balance)
	r.Post("/info", pinLimit, h.Info)
	r.Post("/history", pinLimit, h.History)
}
