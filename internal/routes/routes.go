package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ripple-mobile/ripple_mobile/internal/config"
	"github.com/ripple-mobile/ripple_mobile/internal/funding"
	"github.com/ripple-mobile/ripple_mobile/internal/identity"
	"github.com/ripple-mobile/ripple_mobile/internal/ledger"
	"github.com/ripple-mobile/ripple_mobile/internal/logging"
	"github.com/ripple-mobile/ripple_mobile/internal/middleware"
	"github.com/ripple-mobile/ripple_mobile/internal/notification"
	"github.com/ripple-mobile/ripple_mobile/internal/payments"
	"github.com/ripple-mobile/ripple_mobile/internal/wallet"
)

// MemoryLedgerURL selects the in-memory ledger and faucet. Development only.
const MemoryLedgerURL = "memory://"

const memoryFaucetDrops = 1000 * ledger.DropsPerXRP

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg   config.Config
	DB    *pgxpool.Pool
	Cache redis.UniversalClient
	// SMS publishes outbound SMS; nil logs them instead.
	SMS    notification.MessageWriter
	Logger *slog.Logger
}

type ledgerBackend struct {
	gateway ledger.Gateway
	faucet  funding.Faucet
	state   func() string
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	backend, err := buildLedger(d)
	if err != nil {
		return err
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d, backend.state)

	var (
		identityRepo identity.Repository
		journal      payments.Journal
		locker       identity.SequenceLocker
	)
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
		journal = payments.NewPostgresJournal(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
		journal = payments.NewMemoryJournal()
	}
	if d.Cache != nil {
		locker = identity.NewRedisSequenceLocker(d.Cache, identity.LockerConfig{
			Expiry: identity.LockExpiry(d.Cfg.RequestTimeout, d.Cfg.ConfirmTimeout),
			Wait:   d.Cfg.ConfirmTimeout,
		})
	} else {
		locker = identity.NewMemoryLocker()
	}

	var notifier notification.Notifier = notification.NewLoggerNotifier(d.Logger)
	if d.SMS != nil {
		notifier = notification.Fallback{
			Primary:   notification.NewKafkaNotifier(d.SMS, d.Cfg.RequestTimeout, d.Logger),
			Secondary: notifier,
			Logger:    d.Logger,
		}
	}

	identitySvc := identity.NewService(identityRepo, identity.NewBcryptEncoder())
	fundingSvc, err := funding.NewService(identitySvc, backend.faucet, notifier, d.Logger)
	if err != nil {
		return err
	}
	walletSvc := wallet.NewService(identitySvc, backend.gateway, notifier, d.Cfg.HistoryLimit, d.Logger)
	paymentSvc := payments.NewService(payments.Deps{
		Identity: identitySvc,
		Gateway:  backend.gateway,
		Locker:   locker,
		Notifier: notifier,
		Journal:  journal,
		Logger:   d.Logger,
	})

	pinLimit := middleware.PINRateLimit(d.Cache, d.Cfg.PINAttemptsPerMinute, d.Logger)
	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAccountRoutes(api, funding.NewHandler(fundingSvc))
	RegisterWalletRoutes(api, wallet.NewHandler(walletSvc), pinLimit)
	RegisterPaymentRoutes(api, payments.NewHandler(paymentSvc), pinLimit, idempotency)

	d.Logger.Info("routes configured",
		slog.Bool("postgres", d.DB != nil),
		slog.Bool("redis", d.Cache != nil),
		slog.Bool("kafka", d.SMS != nil),
		slog.String("ledger", backend.state()),
	)
	return nil
}

func buildLedger(d Deps) (ledgerBackend, error) {
	if d.Cfg.JSONRPCURL == MemoryLedgerURL {
		if !d.Cfg.IsDevelopment() {
			return ledgerBackend{}, fmt.Errorf("in-memory ledger is not allowed when APP_ENV=%s", d.Cfg.AppEnv)
		}
		mem := ledger.NewInMemory()
		return ledgerBackend{
			gateway: mem,
			faucet:  funding.MemoryFaucet{Ledger: mem, Drops: memoryFaucetDrops},
			state:   func() string { return "memory" },
		}, nil
	}

	client, err := ledger.NewRPCClient(ledger.RPCConfig{
		URL:            d.Cfg.JSONRPCURL,
		RequestTimeout: d.Cfg.RequestTimeout,
		ConfirmTimeout: d.Cfg.ConfirmTimeout,
		PollInterval:   d.Cfg.PollInterval,
		MaxFeeDrops:    d.Cfg.MaxFeeDrops,
	}, d.Logger)
	if err != nil {
		return ledgerBackend{}, err
	}
	breaker := ledger.NewBreaker(client, ledger.BreakerConfig{
		ConsecutiveFailures: d.Cfg.BreakerFailures,
		OpenTimeout:         d.Cfg.BreakerOpenTimeout,
	}, d.Logger)
	return ledgerBackend{
		gateway: breaker,
		faucet:  funding.NewHTTPFaucet(d.Cfg.FaucetURL, d.Cfg.RequestTimeout),
		state:   breaker.State,
	}, nil
}
