package models

import "github.com/shopspring/decimal"

// TransactionType represents the side of a trade.
type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "buy"
	TransactionTypeSell TransactionType = "sell"
)

// Transaction is an immutable audit record of a single executed trade.
// Transactions are append-only and survive portfolio resets.
type Transaction struct {
	Base
	UserID   string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Symbol   string          `gorm:"size:20;not null" json:"symbol"`
	Quantity int64           `gorm:"not null" json:"quantity"`
	Price    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	Type     TransactionType `gorm:"size:10;not null" json:"type"`
}

// Total returns quantity times price for this trade.
func (t *Transaction) Total() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}
