package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ripple-mobile/ripple_mobile/internal/funding"
)

// RegisterAccountRoutes wires registration of faucet-funded accounts.
func RegisterAccountRoutes(r fiber.Router, h *funding.Handler) {
	r.Post("/accounts", h.Register)
}
