package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/pagination"
	"papertrade/internal/services"
)

// PortfolioHandler handles portfolio and trading endpoints.
type PortfolioHandler struct {
	ledgerService services.LedgerServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(ledgerService services.LedgerServicer) *PortfolioHandler {
	return &PortfolioHandler{ledgerService: ledgerService}
}

// TradeRequest is the payload for buy and sell orders. Price is accepted as a
// JSON number or string and must be strictly positive.
type TradeRequest struct {
	Symbol   string          `json:"symbol" binding:"required,symbol"`
	Quantity int64           `json:"quantity" binding:"required,gt=0"`
	Price    decimal.Decimal `json:"price" binding:"required"`
}

// Initialize creates the user's portfolio at the free tier starting balance.
// Idempotent: re-initializing an existing portfolio returns it unchanged.
// POST /api/v1/portfolio/initialize
func (h *PortfolioHandler) Initialize(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	portfolio, err := h.ledgerService.InitializePortfolio(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"portfolio": portfolio})
}

// GetPortfolio returns the user's portfolio with holdings.
// GET /api/v1/portfolio
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	portfolio, err := h.ledgerService.GetPortfolio(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"portfolio": portfolio})
}

// GetBalance returns the user's cash balance, creating the portfolio on first
// access.
// GET /api/v1/portfolio/balance
func (h *PortfolioHandler) GetBalance(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	balance, err := h.ledgerService.GetBalance(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cash_balance": balance})
}

// GetHoldings returns the user's current holdings.
// GET /api/v1/portfolio/holdings
func (h *PortfolioHandler) GetHoldings(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	holdings, err := h.ledgerService.GetHoldings(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holdings": holdings})
}

// Buy executes a buy order.
// POST /api/v1/portfolio/buy
func (h *PortfolioHandler) Buy(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithValidationError(c, err)
		return
	}

	result, err := h.ledgerService.Buy(userID, req.Symbol, req.Quantity, req.Price)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Sell executes a sell order.
// POST /api/v1/portfolio/sell
func (h *PortfolioHandler) Sell(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithValidationError(c, err)
		return
	}

	result, err := h.ledgerService.Sell(userID, req.Symbol, req.Quantity, req.Price)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Reset liquidates the portfolio back to the free tier starting balance.
// Transaction history is preserved.
// POST /api/v1/portfolio/reset
func (h *PortfolioHandler) Reset(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	portfolio, err := h.ledgerService.ResetPortfolio(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"portfolio": portfolio})
}

// transactionQuery holds the query parameters for listing transactions.
type transactionQuery struct {
	pagination.PageRequest
	From string `form:"from" binding:"omitempty"`
	To   string `form:"to" binding:"omitempty"`
}

// ListTransactions returns the user's transaction history, newest first, with
// optional inclusive from/to date bounds (RFC 3339 or YYYY-MM-DD).
// GET /api/v1/portfolio/transactions
func (h *PortfolioHandler) ListTransactions(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var query transactionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithValidationError(c, err)
		return
	}
	query.Defaults()

	filter, err := buildTransactionFilter(query.From, query.To)
	if err != nil {
		respondWithError(c, err)
		return
	}

	page, err := h.ledgerService.ListTransactions(userID, filter, query.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// buildTransactionFilter parses the optional date bounds. A date-only "to"
// bound is extended to the end of that day so the range stays inclusive.
func buildTransactionFilter(from, to string) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if from != "" {
		t, _, err := parseDateParam(from)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid 'from' date")
		}
		filter.From = &t
	}
	if to != "" {
		t, dateOnly, err := parseDateParam(to)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid 'to' date")
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		filter.To = &t
	}
	return filter, nil
}

func parseDateParam(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
