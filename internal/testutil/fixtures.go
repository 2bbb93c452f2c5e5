package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"papertrade/internal/models"
)

var fixtureCounter int64

func nextN() int64 {
	return atomic.AddInt64(&fixtureCounter, 1)
}

// CreateTestUser creates and persists a user with unique Google ID and email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	n := nextN()
	user := &models.User{
		GoogleID: fmt.Sprintf("google-%d", n),
		Email:    fmt.Sprintf("user%d@example.com", n),
		Name:     fmt.Sprintf("Test User %d", n),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestPortfolio creates a portfolio at the free tier starting balance.
func CreateTestPortfolio(t *testing.T, db *gorm.DB, userID string) *models.Portfolio {
	t.Helper()
	return CreateTestPortfolioWithBalance(t, db, userID, models.FreeTierLimit)
}

// CreateTestPortfolioWithBalance creates a portfolio with a specific balance.
func CreateTestPortfolioWithBalance(t *testing.T, db *gorm.DB, userID string, balance decimal.Decimal) *models.Portfolio {
	t.Helper()

	portfolio := &models.Portfolio{UserID: userID, CashBalance: balance}
	if err := db.Create(portfolio).Error; err != nil {
		t.Fatalf("failed to create test portfolio: %v", err)
	}
	return portfolio
}

// CreateTestHolding creates a holding in a portfolio.
func CreateTestHolding(t *testing.T, db *gorm.DB, portfolioID, symbol string, quantity int64, avgPrice decimal.Decimal) *models.Holding {
	t.Helper()

	holding := &models.Holding{
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Quantity:    quantity,
		AvgPrice:    avgPrice,
	}
	if err := db.Create(holding).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return holding
}

// CreateTestSubscription creates an active subscription on the given plan.
func CreateTestSubscription(t *testing.T, db *gorm.DB, userID string, planID models.PlanID) *models.Subscription {
	t.Helper()

	plan, ok := models.Plans[planID]
	if !ok {
		t.Fatalf("unknown plan %q", planID)
	}
	now := time.Now()
	sub := &models.Subscription{
		UserID:      userID,
		PlanID:      plan.ID,
		CreditLimit: plan.CreditLimit,
		PricePaid:   plan.Price,
		StartsAt:    now,
		ExpiresAt:   now.AddDate(0, 0, plan.DurationDays),
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create test subscription: %v", err)
	}
	return sub
}

// CreateExpiredSubscription creates a subscription whose term has already
// lapsed.
func CreateExpiredSubscription(t *testing.T, db *gorm.DB, userID string, planID models.PlanID) *models.Subscription {
	t.Helper()

	plan, ok := models.Plans[planID]
	if !ok {
		t.Fatalf("unknown plan %q", planID)
	}
	now := time.Now()
	sub := &models.Subscription{
		UserID:      userID,
		PlanID:      plan.ID,
		CreditLimit: plan.CreditLimit,
		PricePaid:   plan.Price,
		StartsAt:    now.AddDate(0, 0, -plan.DurationDays-1),
		ExpiresAt:   now.AddDate(0, 0, -1),
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create expired test subscription: %v", err)
	}
	return sub
}

// CreateTestTransaction creates a transaction record with a specific creation
// time, for history filtering tests.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, symbol string, quantity int64, price decimal.Decimal, txType models.TransactionType, createdAt time.Time) *models.Transaction {
	t.Helper()

	trade := &models.Transaction{
		UserID:   userID,
		Symbol:   symbol,
		Quantity: quantity,
		Price:    price,
		Type:     txType,
	}
	if err := db.Create(trade).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	if !createdAt.IsZero() {
		if err := db.Model(trade).Update("created_at", createdAt).Error; err != nil {
			t.Fatalf("failed to backdate test transaction: %v", err)
		}
		trade.CreatedAt = createdAt
	}
	return trade
}
