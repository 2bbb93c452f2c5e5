package models

import "github.com/shopspring/decimal"

// FreeTierLimit is the virtual cash a new portfolio starts with and the
// trading ceiling applied when no active subscription exists.
var FreeTierLimit = decimal.NewFromInt(1_000_000)

// Portfolio holds a user's virtual cash. Each user has at most one portfolio;
// it is created lazily on the first trading action or an explicit initialize.
// CashBalance is never negative.
type Portfolio struct {
	Base
	UserID      string          `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	CashBalance decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"cash_balance"`

	Holdings []Holding `gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE" json:"holdings"`
}

// Holding is a position in one symbol within one portfolio. Quantity stays
// positive while the record exists; a fully sold holding is deleted, not
// zeroed. AvgPrice is the weighted-average acquisition cost and is only
// changed by buys.
type Holding struct {
	Base
	PortfolioID string          `gorm:"type:uuid;not null;uniqueIndex:idx_portfolio_symbol" json:"portfolio_id"`
	Symbol      string          `gorm:"size:20;not null;uniqueIndex:idx_portfolio_symbol" json:"symbol"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	AvgPrice    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"avg_price"`
}

// BookValue returns the holding's quantity times its average acquisition
// price. This is cost basis, not live market value.
func (h *Holding) BookValue() decimal.Decimal {
	return h.AvgPrice.Mul(decimal.NewFromInt(h.Quantity))
}
