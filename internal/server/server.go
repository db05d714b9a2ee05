package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ripple-mobile/ripple_mobile/internal/config"
	"github.com/ripple-mobile/ripple_mobile/internal/notification"
	"github.com/ripple-mobile/ripple_mobile/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app *fiber.App
	cfg config.Config
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
// db, cache and sms may be nil in development.
func New(cfg config.Config, db *pgxpool.Pool, cache redis.UniversalClient, sms notification.MessageWriter, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
		// Transfers block until validation or the confirmation timeout.
		ReadTimeout:  cfg.ConfirmTimeout + 30*time.Second,
		WriteTimeout: cfg.ConfirmTimeout + 30*time.Second,
		ErrorHandler: errorHandler(logger),
	})

	err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, SMS: sms, Logger: logger})
	if err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg}, nil
}

// errorHandler renders handler errors as {"error": message}.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := http.StatusInternalServerError
		msg := "internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code, msg = fe.Code, fe.Message
		} else {
			logger.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
