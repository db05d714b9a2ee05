package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ripple-mobile/ripple_mobile/internal/payments"
)

// RegisterPaymentRoutes wires transfer endpoints. idempotency may be nil
// when no Redis is configured; when set it runs before pinLimit so replays
// do not count as PIN attempts.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler, pinLimit, idempotency fiber.Handler) {
	if idempotency != nil {
		r.Post("/transfers", idempotency, pinLimit, h.Transfer)
	} else {
		r.Post("/transfers", pinLimit, h.Transfer)
	}
	r.Post("/transfers/:hash/status", pinLimit, h.Status)
}
