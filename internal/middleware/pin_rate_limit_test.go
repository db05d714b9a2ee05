package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ripple-mobile/ripple_mobile/internal/logging"
)

func TestPINRateLimitPerPhone(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Use(PINRateLimit(cache, 2, logging.Discard()))
	app.Post("/balance", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	send := func(body string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/balance", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	for i := 0; i < 2; i++ {
		if status := send(`{"phone":"+233200000001","pin":"0000"}`); status != fiber.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i, status)
		}
		if ttl := mr.TTL(pinAttemptPrefix + "+233200000001"); ttl <= 0 || ttl > time.Minute {
			t.Fatalf("attempt %d: counter must expire within a minute, ttl %v", i, ttl)
		}
	}
	if status := send(`{"phone":"+233200000001","pin":"0000"}`); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", status)
	}
	if status := send(`{"sender_phone":"+233200000002","pin":"0000"}`); status != fiber.StatusOK {
		t.Fatalf("other phone should not be throttled, got %d", status)
	}

	mr.FastForward(61 * time.Second)
	if status := send(`{"phone":"+233200000001","pin":"1234"}`); status != fiber.StatusOK {
		t.Fatalf("window should reset, got %d", status)
	}
}

func TestPINRateLimitFailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer cache.Close()
	mr.Close()

	app := fiber.New()
	app.Use(PINRateLimit(cache, 1, logging.Discard()))
	app.Post("/info", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(fiber.MethodPost, "/info", strings.NewReader(`{"phone":"+1"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected fail-open 200, got %d", resp.StatusCode)
	}
}
