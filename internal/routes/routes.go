// Package routes defines the API routing configuration. It wires
// repositories, services and handlers by constructor injection and
// groups routes by audience: users, the gateway and operators.
package routes

import (
	"time"

	"gigpay/internal/config"
	"gigpay/internal/gateway"
	"gigpay/internal/handlers"
	"gigpay/internal/middleware"
	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/repositories/cache"
	"gigpay/internal/services/dispute"
	"gigpay/internal/services/ledger"
	"gigpay/internal/services/reconciliation"
	"gigpay/internal/services/refund"
	"gigpay/internal/services/settlement"
	"gigpay/internal/services/withdrawal"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB, redisClient *redis.Client) {
	// Repositories
	ledgerRepo := repositories.NewLedgerRepository(db)
	methodRepo := repositories.NewPaymentMethodRepository(db)
	balanceCache := cache.NewBalanceCache(redisClient, 5*time.Minute)

	// Gateway
	stripeProvider := gateway.NewStripeProvider(
		config.GetEnv("STRIPE_SECRET_KEY", ""),
		config.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
	)
	var verifier handlers.WebhookVerifier
	if config.GetEnv("STRIPE_WEBHOOK_SECRET", "") != "" {
		verifier = stripeProvider
	}

	// Services
	ledgerService := ledger.NewService(ledgerRepo, balanceCache, &ledger.NoopMetricsCollector{})
	currency := config.GetEnv("LEDGER_CURRENCY", "usd")
	withdrawalService := withdrawal.NewService(ledgerService, ledgerRepo, methodRepo, stripeProvider, currency)
	settlementService := settlement.NewService(ledgerService, ledgerRepo, settlement.NoopBookingMarker{})
	refundService := refund.NewService(ledgerService, ledgerRepo, stripeProvider, settlement.NoopBookingMarker{})
	disputeService := dispute.NewService(ledgerService, ledgerRepo)
	reconciliationService := reconciliation.NewService(ledgerRepo)

	// Handlers
	balanceHandler := handlers.NewBalanceHandler(ledgerService)
	transactionHandler := handlers.NewTransactionHandler(ledgerService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	methodHandler := handlers.NewPaymentMethodHandler(methodRepo)
	webhookHandler := handlers.NewWebhookHandler(settlementService, withdrawalService, disputeService, verifier)
	adminHandler := handlers.NewAdminHandler(refundService, disputeService, withdrawalService, reconciliationService)
	healthHandler := handlers.NewHealthHandler(db)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")

	// Gateway webhooks are authenticated by signature, not JWT.
	api.Post("/webhooks/gateway", webhookHandler.Handle)

	authenticated := api.Group("/", middleware.Auth)

	authenticated.Get("/balance", middleware.HasPermission(models.PermissionBalanceRead), balanceHandler.GetBalance)
	authenticated.Get("/transactions", middleware.HasPermission(models.PermissionTransactionRead), transactionHandler.ListTransactions)
	authenticated.Post("/withdrawals", middleware.HasPermission(models.PermissionWithdrawalWrite), withdrawalHandler.RequestWithdrawal)

	methods := authenticated.Group("/payment-methods")
	methods.Get("/", middleware.HasPermission(models.PermissionPaymentMethodRead), methodHandler.ListPaymentMethods)
	methods.Post("/", middleware.HasPermission(models.PermissionPaymentMethodRW), methodHandler.CreatePaymentMethod)
	methods.Put("/:id/default", middleware.HasPermission(models.PermissionPaymentMethodRW), methodHandler.SetDefaultPaymentMethod)

	admin := authenticated.Group("/admin", middleware.AdminOnly)
	admin.Post("/refunds", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.RecordRefund)
	admin.Post("/disputes/hold", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.RecordDisputeHold)
	admin.Post("/disputes/resolve", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.RecordDisputeResolution)
	admin.Post("/withdrawals/resubmit", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.ResubmitWithdrawal)
	admin.Get("/reconcile", middleware.HasPermission(models.PermissionReadAdmin), adminHandler.Reconcile)
}
