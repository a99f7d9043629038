package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/lumenpay/lumenpay/internal/account"
	"github.com/lumenpay/lumenpay/internal/config"
	"github.com/lumenpay/lumenpay/internal/ledger"
	"github.com/lumenpay/lumenpay/internal/logging"
	"github.com/lumenpay/lumenpay/internal/middleware"
	"github.com/lumenpay/lumenpay/internal/notification"
	"github.com/lumenpay/lumenpay/internal/pipeline"
	"github.com/lumenpay/lumenpay/internal/securestore"
	"github.com/lumenpay/lumenpay/internal/stellarnet"
	"github.com/lumenpay/lumenpay/internal/subscription"
	"github.com/lumenpay/lumenpay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg     config.Config
	DB      *pgxpool.Pool
	Cache   *redis.Client
	Gateway ledger.Gateway
	Logger  *slog.Logger
}

// Setup configures middlewares and all application routes. The returned
// wallet owns the live subscriptions and must be closed on shutdown.
func Setup(app *fiber.App, d Deps) (*wallet.Wallet, error) {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	network := stellarnet.Testnet()
	if d.Cfg.HorizonURL != "" {
		network = stellarnet.Custom(d.Cfg.HorizonURL, d.Cfg.NetworkPassphrase)
	}

	gateway := d.Gateway
	if gateway == nil {
		gateway = ledger.NewHorizonGateway(network.HorizonURL)
	}

	var accountRepo account.Repository
	switch {
	case d.DB != nil:
		accountRepo = account.NewPostgresRepository(d.DB)
	case d.Cache != nil:
		accountRepo = account.NewSecureRepository(securestore.NewRedis(d.Cache), []byte(d.Cfg.SealPassphrase))
	default:
		accountRepo = account.NewSecureRepository(securestore.NewMemory(), []byte(d.Cfg.SealPassphrase))
	}

	directory := account.NewDirectory(accountRepo)
	pipe := pipeline.New(gateway, network)
	registry := subscription.NewRegistry(gateway, logging.Component(d.Logger, "subscription"))
	notification.RegisterAll(registry, logging.Component(d.Logger, "notification"))
	walletSvc := wallet.New(network, directory, pipe, registry, gateway)

	accountHandler := account.NewHandler(directory)
	walletHandler := wallet.NewHandler(walletSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"network":    network.Passphrase,
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAccountRoutes(api, accountHandler)

	submitLimiter := middleware.SubmitRateLimit(d.Cache, d.Cfg.SubmitPerMinute)
	RegisterPaymentRoutes(api, walletHandler, submitLimiter)
	RegisterSubscriptionRoutes(api, walletHandler)

	return walletSvc, nil
}
