package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ripple-mobile/ripple_mobile/internal/logging"
)

const pinAttemptPrefix = "rl:pin:"

// PINRateLimit caps PIN-bearing requests per phone number per minute;
// successful requests count too. Mount it after Idempotency so replays are
// free. The
// phone is read from the "phone" or "sender_phone" body field, falling back
// to the client IP. Cache failures let the request through.
func PINRateLimit(cache redis.UniversalClient, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			Phone       string `json:"phone"`
			SenderPhone string `json:"sender_phone"`
		}
		_ = c.BodyParser(&req)
		subject := strings.TrimSpace(req.SenderPhone)
		if subject == "" {
			subject = strings.TrimSpace(req.Phone)
		}
		if subject == "" {
			subject = c.IP()
		}

		key := pinAttemptPrefix + subject
		ctx := c.UserContext()
		// The window is set in the same transaction as the first increment
		// so a counter can never outlive it.
		var incr *redis.IntCmd
		_, err := cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, time.Minute)
			return nil
		})
		if err != nil {
			logger.Warn("pin attempt counter unavailable", slog.Any("error", err))
			return c.Next()
		}
		count := incr.Val()
		if count > int64(maxPerMin) {
			logger.Warn("pin attempts throttled", logging.Phone(subject), slog.Int64("attempts", count))
			return fiber.NewError(http.StatusTooManyRequests, "too many PIN attempts, try again later")
		}
		return c.Next()
	}
}
