package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
	"papertrade/internal/pagination"
)

// ledgerService enforces the trading-limit-constrained buy/sell ledger:
// every state-changing trade leaves cash, holdings, and the transaction log
// mutually consistent and within the user's effective trading limit.
type ledgerService struct {
	db            *gorm.DB
	subscriptions SubscriptionServicer

	// userLocks serializes mutating operations per user. Concurrent trades
	// from the same user (multiple tabs/devices) would otherwise race on the
	// read-modify-write of cash and holding quantities. Cross-user operations
	// are independent.
	userLocks sync.Map
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB, subscriptions SubscriptionServicer) LedgerServicer {
	return &ledgerService{db: db, subscriptions: subscriptions}
}

func (s *ledgerService) lockUser(userID string) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// InitializePortfolio creates the user's portfolio with the free tier balance.
// If a portfolio already exists it is returned unchanged.
func (s *ledgerService) InitializePortfolio(userID string) (*models.Portfolio, error) {
	defer s.lockUser(userID)()

	var portfolio *models.Portfolio
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		portfolio, txErr = s.loadOrCreatePortfolio(tx, userID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return portfolio, nil
}

// GetPortfolio returns the user's portfolio with holdings, creating it lazily
// on first access.
func (s *ledgerService) GetPortfolio(userID string) (*models.Portfolio, error) {
	return s.InitializePortfolio(userID)
}

// GetBalance returns the user's cash balance, creating the portfolio lazily.
// Fails for unknown users.
func (s *ledgerService) GetBalance(userID string) (decimal.Decimal, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return decimal.Zero, apperrors.ErrUserNotFound
	}

	portfolio, err := s.InitializePortfolio(userID)
	if err != nil {
		return decimal.Zero, err
	}
	return portfolio.CashBalance, nil
}

// GetHoldings returns the portfolio's holdings, empty if there are none.
func (s *ledgerService) GetHoldings(userID string) ([]models.Holding, error) {
	portfolio, err := s.InitializePortfolio(userID)
	if err != nil {
		return nil, err
	}
	if portfolio.Holdings == nil {
		return []models.Holding{}, nil
	}
	return portfolio.Holdings, nil
}

// Buy executes a purchase: it checks the effective trading limit and the cash
// balance, then atomically debits cash, upserts the holding at the new
// weighted-average price, and appends a buy transaction.
func (s *ledgerService) Buy(userID, symbol string, quantity int64, price decimal.Decimal) (*TradeResult, error) {
	symbol, err := validateTrade(symbol, quantity, price)
	if err != nil {
		return nil, err
	}

	defer s.lockUser(userID)()

	limit, err := s.subscriptions.EffectiveLimit(userID)
	if err != nil {
		return nil, err
	}

	totalCost := price.Mul(decimal.NewFromInt(quantity))

	var result TradeResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		portfolio, txErr := s.loadOrCreatePortfolio(tx, userID)
		if txErr != nil {
			return txErr
		}

		// The limit caps invested book value: current holdings at average
		// cost plus this trade's cost must stay within the effective limit.
		invested := investedBookValue(portfolio.Holdings)
		if invested.Add(totalCost).GreaterThan(limit) {
			return apperrors.WithMessage(apperrors.ErrTradingLimitExceeded,
				fmt.Sprintf("Trading limit exceeded. Current limit: %s", limit.StringFixed(2)))
		}

		if portfolio.CashBalance.LessThan(totalCost) {
			return apperrors.ErrInsufficientFunds
		}

		newBalance := portfolio.CashBalance.Sub(totalCost)
		if txErr := tx.Model(portfolio).Update("cash_balance", newBalance).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		portfolio.CashBalance = newBalance

		if txErr := upsertHolding(tx, portfolio, symbol, quantity, price, totalCost); txErr != nil {
			return txErr
		}

		trade := &models.Transaction{
			UserID:   userID,
			Symbol:   symbol,
			Quantity: quantity,
			Price:    price,
			Type:     models.TransactionTypeBuy,
		}
		if txErr := tx.Create(trade).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		snapshot, txErr := loadPortfolio(tx, userID)
		if txErr != nil {
			return txErr
		}
		result = TradeResult{Portfolio: snapshot, Transaction: trade}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Sell executes a sale: it verifies the position, then atomically credits
// cash, reduces the holding (deleting it at zero), and appends a sell
// transaction. The average price never changes on a sell, and the trading
// limit is not re-checked since selling cannot increase book value.
func (s *ledgerService) Sell(userID, symbol string, quantity int64, price decimal.Decimal) (*TradeResult, error) {
	symbol, err := validateTrade(symbol, quantity, price)
	if err != nil {
		return nil, err
	}

	defer s.lockUser(userID)()

	var result TradeResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var portfolio models.Portfolio
		if txErr := tx.Where("user_id = ?", userID).First(&portfolio).Error; txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperrors.ErrPortfolioNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		var holding models.Holding
		txErr := tx.Where("portfolio_id = ? AND symbol = ?", portfolio.ID, symbol).First(&holding).Error
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			return apperrors.ErrInsufficientHoldings
		}
		if txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if holding.Quantity < quantity {
			return apperrors.ErrInsufficientHoldings
		}

		proceeds := price.Mul(decimal.NewFromInt(quantity))
		newBalance := portfolio.CashBalance.Add(proceeds)
		if txErr := tx.Model(&portfolio).Update("cash_balance", newBalance).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		remaining := holding.Quantity - quantity
		removed := remaining == 0
		if removed {
			// Hard delete so the (portfolio, symbol) unique index stays free
			// for a future re-buy of the same symbol.
			if txErr := tx.Unscoped().Delete(&holding).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
		} else {
			if txErr := tx.Model(&holding).Update("quantity", remaining).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
		}

		trade := &models.Transaction{
			UserID:   userID,
			Symbol:   symbol,
			Quantity: quantity,
			Price:    price,
			Type:     models.TransactionTypeSell,
		}
		if txErr := tx.Create(trade).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		snapshot, txErr := loadPortfolio(tx, userID)
		if txErr != nil {
			return txErr
		}
		result = TradeResult{Portfolio: snapshot, Transaction: trade, HoldingRemoved: removed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ResetPortfolio deletes the user's portfolio and holdings and recreates a
// fresh one at the free tier balance. Past transactions are preserved as the
// audit trail.
func (s *ledgerService) ResetPortfolio(userID string) (*models.Portfolio, error) {
	defer s.lockUser(userID)()

	var portfolio *models.Portfolio
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Portfolio
		txErr := tx.Where("user_id = ?", userID).First(&existing).Error
		if txErr != nil && !errors.Is(txErr, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if txErr == nil {
			if delErr := tx.Unscoped().Where("portfolio_id = ?", existing.ID).Delete(&models.Holding{}).Error; delErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, delErr)
			}
			if delErr := tx.Unscoped().Delete(&existing).Error; delErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, delErr)
			}
		}

		fresh := &models.Portfolio{UserID: userID, CashBalance: models.FreeTierLimit}
		if txErr := tx.Create(fresh).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		fresh.Holdings = []models.Holding{}
		portfolio = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return portfolio, nil
}

// ListTransactions returns the user's transaction history, newest first, with
// optional inclusive date-range filtering.
func (s *ledgerService) ListTransactions(userID string, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	query := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := query.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// validateTrade normalizes the symbol and rejects non-positive quantities and
// prices before any state is touched.
func validateTrade(symbol string, quantity int64, price decimal.Decimal) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required")
	}
	if quantity <= 0 {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be positive")
	}
	if !price.IsPositive() {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "price must be positive")
	}
	return symbol, nil
}

// investedBookValue sums quantity times average acquisition price across
// holdings. Book value, not live market value.
func investedBookValue(holdings []models.Holding) decimal.Decimal {
	total := decimal.Zero
	for i := range holdings {
		total = total.Add(holdings[i].BookValue())
	}
	return total
}

// upsertHolding merges a purchase into the (portfolio, symbol) holding,
// recomputing the weighted-average price, or creates the holding at the
// purchase price.
func upsertHolding(tx *gorm.DB, portfolio *models.Portfolio, symbol string, quantity int64, price, totalCost decimal.Decimal) error {
	var holding models.Holding
	err := tx.Where("portfolio_id = ? AND symbol = ?", portfolio.ID, symbol).First(&holding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		holding = models.Holding{
			PortfolioID: portfolio.ID,
			Symbol:      symbol,
			Quantity:    quantity,
			AvgPrice:    price,
		}
		if err := tx.Create(&holding).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	newQuantity := holding.Quantity + quantity
	// Weighted average: prior cost basis plus this trade's cost over the new
	// share count. Multiply before dividing to preserve currency precision.
	priorCost := holding.AvgPrice.Mul(decimal.NewFromInt(holding.Quantity))
	newAvgPrice := priorCost.Add(totalCost).Div(decimal.NewFromInt(newQuantity)).Round(4)

	if err := tx.Model(&holding).Updates(map[string]interface{}{
		"quantity":  newQuantity,
		"avg_price": newAvgPrice,
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// loadOrCreatePortfolio fetches the user's portfolio with holdings, creating
// it at the free tier balance if absent.
func (s *ledgerService) loadOrCreatePortfolio(tx *gorm.DB, userID string) (*models.Portfolio, error) {
	portfolio, err := loadPortfolio(tx, userID)
	if err == nil {
		return portfolio, nil
	}
	if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
		return nil, err
	}

	fresh := &models.Portfolio{UserID: userID, CashBalance: models.FreeTierLimit}
	if err := tx.Create(fresh).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	fresh.Holdings = []models.Holding{}
	return fresh, nil
}

// loadPortfolio fetches the user's portfolio with holdings preloaded.
func loadPortfolio(tx *gorm.DB, userID string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := tx.Preload("Holdings").Where("user_id = ?", userID).First(&portfolio).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPortfolioNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if portfolio.Holdings == nil {
		portfolio.Holdings = []models.Holding{}
	}
	return &portfolio, nil
}
