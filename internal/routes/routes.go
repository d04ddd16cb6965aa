package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/domain/auth"
	"github.com/FACorreiaa/dealerflow/internal/app/domain/dms"
	"github.com/FACorreiaa/dealerflow/internal/app/domain/images"
	"github.com/FACorreiaa/dealerflow/internal/app/domain/inventory"
	"github.com/FACorreiaa/dealerflow/internal/app/domain/payments"
	"github.com/FACorreiaa/dealerflow/internal/app/domain/scraping"
	"github.com/FACorreiaa/dealerflow/internal/app/domain/social"
	"github.com/FACorreiaa/dealerflow/internal/app/domain/statistics"
	"github.com/FACorreiaa/dealerflow/internal/app/domain/subscription"
	"github.com/FACorreiaa/dealerflow/internal/app/middleware"
	"github.com/FACorreiaa/dealerflow/internal/app/models"
	"github.com/FACorreiaa/dealerflow/internal/pkg/config"
)

type AppHandlers struct {
	Auth         *auth.AuthHandlers
	AuthToken    *auth.AuthTokenHandler
	Subscription *subscription.SubscriptionHandlers
	Payments     *payments.PaymentHandlers
	Scraping     *scraping.ScrapingHandlers
	Images       *images.ImageHandlers
	Inventory    *inventory.InventoryHandlers
	DMS          *dms.DMSHandlers
	Social       *social.SocialHandlers
	Statistics   *statistics.StatisticsHandlers
}

// Setup wires repositories, services and handlers onto the router. The
// returned scheduler is started by main when the scrape schedule is enabled.
func Setup(r *gin.Engine, dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) *scraping.Scheduler {
	handlers, scheduler := setupDependencies(dbPool, cfg, log)
	setupRouter(r, handlers, dbPool, cfg, log)
	return scheduler
}

func jwtConfig(cfg *config.Config, log *slog.Logger) middleware.JWTConfig {
	return middleware.JWTConfig{
		SecretKey:       cfg.JWT.SecretKey,
		TokenExpiration: cfg.JWT.AccessTokenTTL,
		Issuer:          cfg.JWT.Issuer,
		Audience:        cfg.JWT.Audience,
		Logger:          log,
	}
}

func setupDependencies(dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) (*AppHandlers, *scraping.Scheduler) {
	slogLog := slog.Default()

	// Repositories
	authRepo := auth.NewPostgresAuthRepo(dbPool, slogLog)
	subscriptionRepo := subscription.NewPostgresSubscriptionRepo(dbPool, slogLog)
	paymentRepo := payments.NewPostgresPaymentRepo(dbPool, slogLog)
	scrapeRepo := scraping.NewPostgresScrapeRepo(dbPool, slogLog)
	imageRepo := images.NewPostgresImageRepo(dbPool, slogLog)
	vehicleRepo := inventory.NewPostgresVehicleRepo(dbPool, slogLog)
	dmsRepo := dms.NewPostgresDMSRepo(dbPool, slogLog)
	postRepo := social.NewPostgresPostRepo(dbPool, slogLog)
	statsRepo := statistics.NewPostgresStatsRepo(dbPool, slogLog)

	// Services
	subscriptionService := subscription.NewSubscriptionService(subscriptionRepo, log)
	authService := auth.NewAuthService(authRepo, subscriptionService, cfg, log)
	paymentService := payments.NewPaymentService(paymentRepo, payments.NewProcessorFromConfig(cfg, log), subscriptionService, cfg, log)
	inventoryService := inventory.NewInventoryService(vehicleRepo, log)
	imageService := images.NewImageService(imageRepo, cfg.Uploads, log)

	// Scrape pipeline. The DMS sync reuses the fetcher and image store with
	// its own ingest source, so provenance stays distinguishable per record.
	fetcher := scraping.NewPageFetcher(cfg.Scraper.PageTimeout, cfg.Scraper.UserAgent, cfg.Scraper.RequestsPerSecond)
	detector := scraping.NewPlatformDetector(fetcher, log)
	finder := scraping.NewInventoryPageFinder(fetcher, log)
	extractor := scraping.NewListingExtractor(log)
	scrapeIngestor := images.NewIngestor(fetcher, imageRepo, models.ImageSourceScraping, cfg.Uploads, cfg.Scraper.MaxImagesPerListing, log)
	dmsIngestor := images.NewIngestor(fetcher, imageRepo, models.ImageSourceDMS, cfg.Uploads, cfg.Scraper.MaxImagesPerListing, log)

	orchestrator := scraping.NewScrapeOrchestrator(cfg.Scraper, fetcher, detector, finder, extractor, inventoryService, scrapeIngestor, log)
	scrapingService := scraping.NewScrapingService(scrapeRepo, subscriptionService, detector, orchestrator, cfg.Scraper, log)
	scheduler := scraping.NewScheduler(scrapeRepo, scrapingService, log)

	dmsService := dms.NewDMSService(dmsRepo, subscriptionService, inventoryService, dmsIngestor, log)
	socialService := social.NewSocialService(postRepo, subscriptionService, inventoryService, log)
	statsService := statistics.NewStatisticsService(statsRepo, subscriptionService, log)

	handlers := &AppHandlers{
		Auth:         auth.NewAuthHandlers(authService, log),
		AuthToken:    auth.NewAuthTokenHandler(slogLog, jwtConfig(cfg, slogLog)),
		Subscription: subscription.NewSubscriptionHandlers(subscriptionService, log),
		Payments:     payments.NewPaymentHandlers(paymentService, log),
		Scraping:     scraping.NewScrapingHandlers(scrapingService, log),
		Images:       images.NewImageHandlers(imageService, log),
		Inventory:    inventory.NewInventoryHandlers(inventoryService, log),
		DMS:          dms.NewDMSHandlers(dmsService, log),
		Social:       social.NewSocialHandlers(socialService, log),
		Statistics:   statistics.NewStatisticsHandlers(statsService, log),
	}
	return handlers, scheduler
}

func setupRouter(r *gin.Engine, h *AppHandlers, dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) {
	jwtCfg := jwtConfig(cfg, slog.Default())

	// Liveness includes a database ping so the orchestration layer can tell
	// a broken pool from a healthy idle process.
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := dbPool.Ping(ctx); err != nil {
			log.Warn("Health check database ping failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	})

	api := r.Group("/api/v1")

	// Signup, login and token exchange stay open; the rest of the auth
	// surface needs a session.
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.POST("/token", h.AuthToken.GenerateToken)
		authGroup.GET("/example", h.AuthToken.GetTokenExample)

		authed := authGroup.Group("")
		authed.Use(middleware.JWTAuthMiddleware(jwtCfg))
		{
			authed.GET("/verify", h.AuthToken.VerifyToken)
			authed.PUT("/password", h.Auth.ChangePassword)
			authed.GET("/profile", h.Auth.GetProfile)
			authed.PUT("/profile", h.Auth.UpdateProfile)
		}
	}

	// Public catalogs and the payment provider callback. The webhook
	// authenticates by signature, not by session.
	api.GET("/subscription/plans", h.Subscription.ListPlans)
	api.GET("/dms/providers", h.DMS.Providers)
	api.POST("/payments/webhook", h.Payments.Webhook)

	// Platform access answers for anonymous callers too: without a session
	// the default platform set comes back instead of a 401.
	optionalCfg := jwtCfg
	optionalCfg.Optional = true
	api.GET("/subscription/platforms", middleware.JWTAuthMiddleware(optionalCfg), h.Subscription.GetPlatforms)

	protected := api.Group("")
	protected.Use(middleware.JWTAuthMiddleware(jwtCfg))
	{
		subscriptionGroup := protected.Group("/subscription")
		{
			subscriptionGroup.GET("", h.Subscription.GetSubscription)
			subscriptionGroup.POST("/upgrade", h.Subscription.Upgrade)
			subscriptionGroup.POST("/cancel", h.Subscription.Cancel)
			subscriptionGroup.GET("/features", h.Subscription.GetFeatures)
			subscriptionGroup.GET("/features/:feature", h.Subscription.CheckFeature)
		}

		paymentsGroup := protected.Group("/payments")
		{
			paymentsGroup.POST("/checkout", h.Payments.CreateCheckout)
			paymentsGroup.POST("/subscribe", h.Payments.SetupRecurring)
			paymentsGroup.DELETE("/subscribe", h.Payments.CancelRecurring)
			paymentsGroup.GET("", h.Payments.ListPayments)
			paymentsGroup.GET("/:id", h.Payments.GetPayment)
			paymentsGroup.POST("/:id/refund", h.Payments.RefundPayment)
		}

		scrapingGroup := protected.Group("/scraping")
		{
			scrapingGroup.POST("/setup", h.Scraping.Setup)
			scrapingGroup.POST("/run", h.Scraping.Run)
			scrapingGroup.GET("/status", h.Scraping.Status)
			scrapingGroup.PUT("/schedule", h.Scraping.UpdateSchedule)
		}

		imagesGroup := protected.Group("/images")
		{
			imagesGroup.POST("/upload", h.Images.Upload)
			imagesGroup.GET("", h.Images.List)
			imagesGroup.GET("/:id", h.Images.Get)
			imagesGroup.GET("/:id/file", h.Images.ServeFile)
			imagesGroup.PUT("/:id/primary", h.Images.SetPrimary)
			imagesGroup.PUT("/:id", h.Images.UpdateMetadata)
			imagesGroup.DELETE("/:id", h.Images.Delete)
		}

		vehiclesGroup := protected.Group("/vehicles")
		{
			vehiclesGroup.GET("", h.Inventory.Search)
			vehiclesGroup.GET("/stats", h.Inventory.Stats)
			vehiclesGroup.GET("/:id", h.Inventory.Get)
			vehiclesGroup.PUT("/:id/status", h.Inventory.UpdateStatus)
			vehiclesGroup.DELETE("/:id", h.Inventory.Delete)
		}

		dmsGroup := protected.Group("/dms")
		{
			dmsGroup.POST("/connect", h.DMS.Connect)
			dmsGroup.POST("/sync", h.DMS.Sync)
			dmsGroup.GET("/connection", h.DMS.GetConnection)
			dmsGroup.DELETE("/connection", h.DMS.Disconnect)
		}

		socialGroup := protected.Group("/social")
		{
			socialGroup.POST("/generate", h.Social.Generate)
			socialGroup.GET("/posts", h.Social.ListPosts)
			socialGroup.PUT("/posts/:id/status", h.Social.UpdatePostStatus)
		}

		protected.GET("/statistics/dashboard", h.Statistics.Dashboard)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}
