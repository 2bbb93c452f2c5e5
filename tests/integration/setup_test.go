package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"papertrade/internal/handlers"
	"papertrade/internal/logger"
	"papertrade/internal/market"
	"papertrade/internal/middleware"
	"papertrade/internal/models"
	"papertrade/internal/services"
	"papertrade/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// stubQuoteSupplier serves fixed market data so integration tests never reach
// the real provider.
type stubQuoteSupplier struct{}

func (stubQuoteSupplier) GetQuote(_ context.Context, symbol string) (*market.Quote, error) {
	return &market.Quote{Symbol: symbol, Price: decimal.NewFromInt(100)}, nil
}

func (stubQuoteSupplier) Search(_ context.Context, _ string) ([]market.SearchResult, error) {
	return []market.SearchResult{{Symbol: "AAPL", Name: "Apple Inc"}}, nil
}

func (stubQuoteSupplier) GetDaily(_ context.Context, symbol string) ([]market.Candle, error) {
	return []market.Candle{{Date: "2025-01-15", Close: decimal.NewFromInt(100)}}, nil
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Portfolio{},
		&models.Holding{},
		&models.Transaction{},
		&models.Subscription{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	subscriptionService := services.NewSubscriptionService(db)
	ledgerService := services.NewLedgerService(db, subscriptionService)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, subscriptionService)
	portfolioHandler := handlers.NewPortfolioHandler(ledgerService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	marketHandler := handlers.NewMarketHandler(stubQuoteSupplier{})

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	auth := router.Group("/auth")
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/user", middleware.AuthMiddleware(), authHandler.CurrentUser)

	v1 := router.Group("/api/v1")

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	portfolio := protected.Group("/portfolio")
	portfolio.POST("/initialize", portfolioHandler.Initialize)
	portfolio.GET("", portfolioHandler.GetPortfolio)
	portfolio.GET("/balance", portfolioHandler.GetBalance)
	portfolio.GET("/holdings", portfolioHandler.GetHoldings)
	portfolio.POST("/buy", portfolioHandler.Buy)
	portfolio.POST("/sell", portfolioHandler.Sell)
	portfolio.POST("/reset", portfolioHandler.Reset)
	portfolio.GET("/transactions", portfolioHandler.ListTransactions)

	subscription := protected.Group("/subscription")
	subscription.GET("/plans", subscriptionHandler.Plans)
	subscription.GET("/status", subscriptionHandler.Status)
	subscription.POST("/purchase", subscriptionHandler.Purchase)

	marketRoutes := protected.Group("/market")
	marketRoutes.GET("/quote/:symbol", marketHandler.Quote)
	marketRoutes.GET("/search", marketHandler.Search)
	marketRoutes.GET("/daily/:symbol", marketHandler.Daily)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// assertErrorCode checks the error envelope carries the expected code.
func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// signInUser creates a Google-authenticated user directly and returns a valid
// session token, standing in for the browser OAuth round trip.
func (app *testApp) signInUser(t *testing.T, email string) (token, userID string) {
	t.Helper()

	n := dbCounter.Add(1)
	user := &models.User{
		GoogleID: fmt.Sprintf("google-sub-%d", n),
		Email:    email,
		Name:     "Test User",
	}
	if err := app.DB.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed to generate session token: %v", err)
	}
	return token, user.ID
}
