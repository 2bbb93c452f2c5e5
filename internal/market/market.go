// Package market fetches quotes from the Alpha Vantage API. The ledger never
// calls this package; handlers use it as a convenience proxy for the
// frontend, and trade requests carry the client-supplied price.
package market

import (
	"context"

	"github.com/shopspring/decimal"
)

// Quote is a current market snapshot for one symbol.
type Quote struct {
	Symbol           string          `json:"symbol"`
	Open             decimal.Decimal `json:"open"`
	High             decimal.Decimal `json:"high"`
	Low              decimal.Decimal `json:"low"`
	Price            decimal.Decimal `json:"price"`
	Volume           int64           `json:"volume"`
	LatestTradingDay string          `json:"latest_trading_day"`
	PreviousClose    decimal.Decimal `json:"previous_close"`
	Change           decimal.Decimal `json:"change"`
	ChangePercent    string          `json:"change_percent"`
}

// SearchResult is one symbol-search match.
type SearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Region   string `json:"region"`
	Currency string `json:"currency"`
}

// Candle is one day of OHLCV data.
type Candle struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// QuoteSupplier fetches market data for the handlers.
type QuoteSupplier interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	Search(ctx context.Context, query string) ([]SearchResult, error)
	GetDaily(ctx context.Context, symbol string) ([]Candle, error)
}
