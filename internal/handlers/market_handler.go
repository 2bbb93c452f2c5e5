package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/market"
)

// MarketHandler proxies market data requests to the quote supplier.
type MarketHandler struct {
	supplier market.QuoteSupplier
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(supplier market.QuoteSupplier) *MarketHandler {
	return &MarketHandler{supplier: supplier}
}

// Quote returns the current quote for a symbol.
// GET /api/v1/market/quote/:symbol
func (h *MarketHandler) Quote(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Symbol is required"))
		return
	}

	quote, err := h.supplier.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// Search returns symbol matches for a query string.
// GET /api/v1/market/search?q=...
func (h *MarketHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Query parameter 'q' is required"))
		return
	}

	results, err := h.supplier.Search(c.Request.Context(), query)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Daily returns the recent daily OHLCV series for a symbol, newest first.
// GET /api/v1/market/daily/:symbol
func (h *MarketHandler) Daily(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Symbol is required"))
		return
	}

	candles, err := h.supplier.GetDaily(c.Request.Context(), symbol)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "candles": candles})
}
