package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/railbill/railbill/internal/balance"
	"github.com/railbill/railbill/internal/bills"
	"github.com/railbill/railbill/internal/chain"
	"github.com/railbill/railbill/internal/config"
	"github.com/railbill/railbill/internal/middleware"
	"github.com/railbill/railbill/internal/notification"
	"github.com/railbill/railbill/internal/orchestrator"
	"github.com/railbill/railbill/internal/session"
	"github.com/railbill/railbill/internal/topup"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Eth    *ethclient.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
	if d.Eth == nil {
		return fmt.Errorf("chain rpc client is required")
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	notifier := notification.NewLoggerNotifier(d.Logger)
	token := common.HexToAddress(d.Cfg.USDCContract)

	reader := chain.NewEthReader(d.Eth)
	tracker := balance.New(reader, balance.Config{
		Interval: d.Cfg.PollInterval,
		Token:    token,
	}, func(err error) {
		d.Logger.Warn("balance poll failed", "error", err)
		_ = notifier.Send(context.Background(), notification.Message{
			Title:       "Balance update failed",
			Description: "Could not refresh your wallet balance. Retrying shortly.",
			Variant:     notification.VariantDestructive,
		})
	})

	var bank topup.BankClient
	if d.Cfg.FundingAPIURL != "" {
		bank = topup.NewHTTPBankClient(d.Cfg.FundingAPIURL, d.Cfg.FundingAPIKey)
	} else {
		bank = topup.StaticBankClient{}
	}
	topupSvc := topup.NewService(bank, topup.NewLoggerCardFunder(d.Logger), d.Cfg.ChainID, d.Cfg.DeveloperFee)

	var billRepo bills.Repository
	if d.DB != nil {
		billRepo = bills.NewPostgresRepository(d.DB)
	} else {
		billRepo = bills.NewMemoryRepository(bills.DefaultCatalog())
	}

	var sender chain.TxSender
	if d.Cfg.SettlementKey != "" {
		var err error
		if sender, err = chain.NewEthSender(d.Eth, d.Cfg.SettlementKey); err != nil {
			return fmt.Errorf("settlement sender: %w", err)
		}
	} else {
		if !d.Cfg.IsDev() {
			return fmt.Errorf("SETTLEMENT_KEY is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		sender = chain.StaticSender{}
	}
	billSvc := bills.NewService(billRepo, sender, notifier, token, d.Cfg.ChainID)

	orch := orchestrator.New(tracker, topupSvc, billSvc, notifier, d.Logger)
	verifier := session.NewVerifier(d.Cfg.SessionSecret)
	handler := orchestrator.NewHandler(orch, verifier)

	// API routes
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
	RegisterSessionRoutes(api, handler)

	// Protected routes
	authmw := middleware.SessionAuth(verifier, orch)
	protected := api.Group("", authmw, middleware.Audit(d.Logger))
	RegisterDashboardRoutes(protected, handler)
	RegisterTopUpRoutes(protected, handler)
	RegisterBillRoutes(protected, handler, middleware.PayRateLimit(d.Cache, 10))

	return nil
}
