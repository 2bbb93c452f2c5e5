package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"papertrade/internal/config"
	"papertrade/internal/database"
	"papertrade/internal/handlers"
	"papertrade/internal/logger"
	"papertrade/internal/market"
	"papertrade/internal/middleware"
	"papertrade/internal/services"
	"papertrade/internal/validator"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom validation tags
	if err := validator.Register(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	subscriptionService := services.NewSubscriptionService(db)
	ledgerService := services.NewLedgerService(db, subscriptionService)
	quoteSupplier := market.NewAlphaVantageClient(nil, appConfig.AlphaVantageBaseURL, appConfig.AlphaVantageAPIKey)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, subscriptionService)
	portfolioHandler := handlers.NewPortfolioHandler(ledgerService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	marketHandler := handlers.NewMarketHandler(quoteSupplier)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware. Credentials are required for the session cookie, so the
	// origin must be echoed rather than wildcarded.
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", appConfig.FrontendURL)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// OAuth routes (outside /api/v1, matching the registered redirect URL)
	auth := router.Group("/auth")
	auth.GET("/google/login", authHandler.Login)
	auth.GET("/google/callback", authHandler.Callback)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/user", middleware.AuthMiddleware(), authHandler.CurrentUser)

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public pricing page
	v1.GET("/subscription/plans", subscriptionHandler.Plans)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// Portfolio and trading routes
	portfolio := protected.Group("/portfolio")
	portfolio.POST("/initialize", portfolioHandler.Initialize)
	portfolio.GET("", portfolioHandler.GetPortfolio)
	portfolio.GET("/balance", portfolioHandler.GetBalance)
	portfolio.GET("/holdings", portfolioHandler.GetHoldings)
	portfolio.POST("/buy", portfolioHandler.Buy)
	portfolio.POST("/sell", portfolioHandler.Sell)
	portfolio.POST("/reset", portfolioHandler.Reset)
	portfolio.GET("/transactions", portfolioHandler.ListTransactions)

	// Subscription routes
	subscription := protected.Group("/subscription")
	subscription.GET("/status", subscriptionHandler.Status)
	subscription.POST("/purchase", subscriptionHandler.Purchase)

	// Market data proxy, rate limited per client IP
	marketRoutes := protected.Group("/market")
	marketRoutes.Use(middleware.RateLimit(appConfig.MarketRateLimit, appConfig.MarketRateBurst))
	marketRoutes.GET("/quote/:symbol", marketHandler.Quote)
	marketRoutes.GET("/search", marketHandler.Search)
	marketRoutes.GET("/daily/:symbol", marketHandler.Daily)

	log.Infof("Starting papertrade API server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
