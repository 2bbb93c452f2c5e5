package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanID identifies a subscription tier.
type PlanID string

const (
	PlanBasic    PlanID = "basic"
	PlanStandard PlanID = "standard"
	PlanPremium  PlanID = "premium"
	PlanUltimate PlanID = "ultimate"
)

// Plan describes a purchasable subscription tier.
type Plan struct {
	ID           PlanID          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	CreditLimit  decimal.Decimal `json:"credit_limit"`
	DurationDays int             `json:"duration_days"`
}

// Plans is the subscription catalog. Credit limits are the trading ceiling
// while the subscription is active.
var Plans = map[PlanID]Plan{
	PlanBasic:    {ID: PlanBasic, Name: "Basic", Price: decimal.NewFromInt(100), CreditLimit: decimal.NewFromInt(100_000), DurationDays: 30},
	PlanStandard: {ID: PlanStandard, Name: "Standard", Price: decimal.NewFromInt(250), CreditLimit: decimal.NewFromInt(250_000), DurationDays: 30},
	PlanPremium:  {ID: PlanPremium, Name: "Premium", Price: decimal.NewFromInt(475), CreditLimit: decimal.NewFromInt(500_000), DurationDays: 30},
	PlanUltimate: {ID: PlanUltimate, Name: "Ultimate", Price: decimal.NewFromInt(925), CreditLimit: decimal.NewFromInt(1_000_000), DurationDays: 30},
}

// Subscription is a user's current tier grant. A user has at most one row;
// repurchasing overwrites it. The credit limit applies only while
// now < ExpiresAt.
type Subscription struct {
	Base
	UserID      string          `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	PlanID      PlanID          `gorm:"size:20;not null" json:"plan_id"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"credit_limit"`
	PricePaid   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price_paid"`
	StartsAt    time.Time       `gorm:"not null" json:"starts_at"`
	ExpiresAt   time.Time       `gorm:"not null" json:"expires_at"`
}

// Active reports whether the subscription's credit limit is in force at t.
func (s *Subscription) Active(t time.Time) bool {
	return t.Before(s.ExpiresAt)
}
