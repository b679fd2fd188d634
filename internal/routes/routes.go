package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/loyalty/internal/config"
	"github.com/example/loyalty/internal/handlers"
	"github.com/example/loyalty/internal/loyalty"
	"github.com/example/loyalty/internal/middleware"
	"github.com/example/loyalty/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	smsService := services.NewSMSService(cfg.SMSGatewayURL, cfg.SMSAPIKey, cfg.SMSSender)
	ledgerService := services.NewLedgerService(db)
	statsService := services.NewStatsService(db)
	evaluator := loyalty.NewEvaluator(cfg.Timezone)
	otpEngine := loyalty.NewOTPEngine(cfg.OTPDigits, cfg.OTPTTL, cfg.OTPMaxAttempts, cfg.OTPResendCooldown)
	redemptionService := services.NewRedemptionService(
		db, ledgerService, evaluator,
		cfg.RedemptionCodeLength, cfg.RedemptionCodeRetries, cfg.RedemptionExpiry,
	)

	authHandler := handlers.NewAuthHandler(db, cfg, otpEngine, smsService)
	visitHandler := handlers.NewVisitHandler(db, statsService)
	rewardHandler := handlers.NewRewardHandler(db, ledgerService, evaluator)
	redemptionHandler := handlers.NewRedemptionHandler(db, redemptionService, statsService)
	customerHandler := handlers.NewCustomerHandler(db, ledgerService)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/business/register", authHandler.RegisterBusiness)
	auth.Post("/business/login", authHandler.LoginBusiness)
	auth.Post("/customer/register", authHandler.RegisterCustomer)
	auth.Post("/customer/verify-otp", authHandler.VerifyOTP)
	auth.Post("/customer/resend-otp", authHandler.ResendOTP)

	// Visits
	visits := api.Group("/visits")
	visits.Post("/", middleware.RequireBusiness(cfg), visitHandler.CreateVisit)
	visits.Get("/", middleware.RequireEither(cfg), visitHandler.ListVisits)
	visits.Get("/:id", middleware.RequireEither(cfg), visitHandler.GetVisit)
	visits.Put("/:id", middleware.RequireBusiness(cfg), visitHandler.UpdateVisit)
	visits.Delete("/:id", middleware.RequireBusiness(cfg), visitHandler.DeleteVisit)

	// Rewards and redemptions
	rewards := api.Group("/rewards")
	rewards.Post("/", middleware.RequireBusiness(cfg), rewardHandler.CreateReward)
	rewards.Get("/", middleware.RequireEither(cfg), rewardHandler.ListRewards)
	rewards.Post("/redeem", middleware.RequireCustomer(cfg), redemptionHandler.Redeem)
	rewards.Get("/verify/:code", middleware.RequireBusiness(cfg), redemptionHandler.VerifyCode)
	rewards.Get("/:id", middleware.RequireEither(cfg), rewardHandler.GetReward)
	rewards.Put("/:id", middleware.RequireBusiness(cfg), rewardHandler.UpdateReward)
	rewards.Delete("/:id", middleware.RequireBusiness(cfg), rewardHandler.DeleteReward)

	redemptions := api.Group("/redemptions")
	redemptions.Get("/", middleware.RequireEither(cfg), redemptionHandler.ListRedemptions)
	redemptions.Post("/:id/use", middleware.RequireBusiness(cfg), redemptionHandler.UseRedemption)
	redemptions.Post("/:id/cancel", middleware.RequireBusiness(cfg), redemptionHandler.CancelRedemption)

	// Customer views
	customer := api.Group("/customer", middleware.RequireCustomer(cfg))
	customer.Get("/points", customerHandler.Points)

	// Maintenance, for cron. Idempotent.
	api.Post("/maintenance/expire-redemptions", redemptionHandler.ExpireRedemptions)
}
