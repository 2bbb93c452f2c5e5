package services

import (
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/models"
	"papertrade/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	FindOrCreateFromGoogle(googleID, email, name, picture string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
}

// SubscriptionStatus describes a user's current tier and trading ceiling.
type SubscriptionStatus struct {
	HasSubscription bool                 `json:"has_subscription"`
	TradingLimit    decimal.Decimal      `json:"trading_limit"`
	Subscription    *models.Subscription `json:"subscription"`
}

// SubscriptionServicer defines the contract for subscription-related business logic.
type SubscriptionServicer interface {
	// EffectiveLimit returns the trading ceiling currently in force for the
	// user: the subscription credit limit while active, else the free tier limit.
	EffectiveLimit(userID string) (decimal.Decimal, error)
	Purchase(userID string, planID models.PlanID) (*models.Subscription, error)
	Status(userID string) (*SubscriptionStatus, error)
	Plans() []models.Plan
}

// TransactionFilter holds optional inclusive date-range bounds for listing transactions.
type TransactionFilter struct {
	From *time.Time
	To   *time.Time
}

// TradeResult is the outcome of an executed buy or sell: the updated
// portfolio snapshot, the appended audit transaction, and whether the
// traded holding was fully liquidated and removed.
type TradeResult struct {
	Portfolio      *models.Portfolio   `json:"portfolio"`
	Transaction    *models.Transaction `json:"transaction"`
	HoldingRemoved bool                `json:"holding_removed"`
}

// LedgerServicer defines the contract for the trading ledger: portfolio
// lifecycle, buy/sell execution under the effective trading limit, and
// transaction history.
type LedgerServicer interface {
	InitializePortfolio(userID string) (*models.Portfolio, error)
	GetPortfolio(userID string) (*models.Portfolio, error)
	GetBalance(userID string) (decimal.Decimal, error)
	GetHoldings(userID string) ([]models.Holding, error)
	Buy(userID, symbol string, quantity int64, price decimal.Decimal) (*TradeResult, error)
	Sell(userID, symbol string, quantity int64, price decimal.Decimal) (*TradeResult, error)
	ResetPortfolio(userID string) (*models.Portfolio, error)
	ListTransactions(userID string, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
}
