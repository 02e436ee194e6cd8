package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/sanduq-pay/sanduq_pay/internal/auth"
	"github.com/sanduq-pay/sanduq_pay/internal/config"
	"github.com/sanduq-pay/sanduq_pay/internal/identity"
	"github.com/sanduq-pay/sanduq_pay/internal/ledger"
	"github.com/sanduq-pay/sanduq_pay/internal/middleware"
	"github.com/sanduq-pay/sanduq_pay/internal/notification"
	"github.com/sanduq-pay/sanduq_pay/internal/rates"
	"github.com/sanduq-pay/sanduq_pay/internal/reporting"
	"github.com/sanduq-pay/sanduq_pay/internal/transfer"
	"github.com/sanduq-pay/sanduq_pay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Postgres and Redis are mandatory outside of dev; dev falls back to
	// in-memory stores so the API runs without external services.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	registerHealthRoute(app, d)

	var walletStore wallet.Store
	if d.DB != nil {
		walletStore = wallet.NewPostgresStore(d.DB)
	} else {
		walletStore = wallet.NewMemoryStore()
	}

	var entryStore ledger.Store
	if d.DB != nil {
		entryStore = ledger.NewPostgresStore(d.DB)
	} else {
		entryStore = ledger.NewInMemory(walletStore)
	}

	var userRepo identity.Repository
	if d.DB != nil {
		userRepo = identity.NewPostgresRepository(d.DB)
	} else {
		userRepo = identity.NewMemoryRepository()
	}

	var rateProvider rates.Provider = rates.NewClient(d.Cfg.RateAPIURL)
	if d.Cache != nil {
		rateProvider = rates.NewCache(rateProvider, d.Cache, d.Cfg.RateCacheTTL, d.Logger)
	}

	identitySvc := identity.NewService(userRepo)
	authSvc := auth.NewService(d.Cfg, d.Cache, d.Logger)
	walletSvc := wallet.NewService(walletStore, d.Cfg.DefaultCurrency)
	notifier := notification.NewLoggerNotifier(d.Logger)
	engine := transfer.NewEngine(walletStore, entryStore, userRepo, rateProvider, notifier)
	reportingSvc := reporting.NewService(walletStore, entryStore, rateProvider, d.Cfg.SettlementCurrency)

	authHandler := auth.NewHandler(identitySvc, authSvc)
	walletHandler := wallet.NewHandler(walletSvc)
	transferHandler := transfer.NewHandler(engine)
	ledgerHandler := ledger.NewHandler(walletStore, entryStore)
	reportingHandler := reporting.NewHandler(reportingSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", middleware.LoginRateLimit(d.Cache, 5), authHandler.Login)

	// Protected routes
	protected := api.Group("", middleware.JWTAuth(authSvc))
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Post("/wallets", walletHandler.Create)
	protected.Get("/wallets", walletHandler.List)
	if d.Cache != nil {
		protected.Post("/transfers", middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger), transferHandler.Create)
	} else {
		protected.Post("/transfers", transferHandler.Create)
	}
	protected.Get("/transactions", ledgerHandler.List)
	protected.Get("/reports/overview", reportingHandler.Overview)
	protected.Get("/reports/last-7-days", reportingHandler.Last7Days)

	return nil
}
