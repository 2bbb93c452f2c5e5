package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
)

// subscriptionService handles subscription tiers and the effective trading limit.
type subscriptionService struct {
	db *gorm.DB
}

// NewSubscriptionService creates a new SubscriptionServicer.
func NewSubscriptionService(db *gorm.DB) SubscriptionServicer {
	return &subscriptionService{db: db}
}

// EffectiveLimit returns the subscription credit limit while the subscription
// is active, or the free tier limit when there is no subscription or it has
// expired. An expiry timestamp at or before now counts as expired.
func (s *subscriptionService) EffectiveLimit(userID string) (decimal.Decimal, error) {
	sub, err := s.current(userID)
	if err != nil {
		return decimal.Zero, err
	}
	if sub == nil || !sub.Active(time.Now()) {
		return models.FreeTierLimit, nil
	}
	return sub.CreditLimit, nil
}

// Purchase grants the user the given plan, replacing any previous
// subscription. Payment processing is out of scope; the grant starts
// immediately and runs for the plan's duration.
func (s *subscriptionService) Purchase(userID string, planID models.PlanID) (*models.Subscription, error) {
	plan, ok := models.Plans[planID]
	if !ok {
		return nil, apperrors.ErrInvalidPlan
	}

	now := time.Now()
	sub, err := s.current(userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		sub = &models.Subscription{UserID: userID}
	}

	sub.PlanID = plan.ID
	sub.CreditLimit = plan.CreditLimit
	sub.PricePaid = plan.Price
	sub.StartsAt = now
	sub.ExpiresAt = now.AddDate(0, 0, plan.DurationDays)

	if err := s.db.Save(sub).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sub, nil
}

// Status reports whether the user has an active subscription and the trading
// limit currently in force.
func (s *subscriptionService) Status(userID string) (*SubscriptionStatus, error) {
	sub, err := s.current(userID)
	if err != nil {
		return nil, err
	}

	status := &SubscriptionStatus{
		TradingLimit: models.FreeTierLimit,
		Subscription: sub,
	}
	if sub != nil && sub.Active(time.Now()) {
		status.HasSubscription = true
		status.TradingLimit = sub.CreditLimit
	}
	return status, nil
}

// Plans returns the subscription catalog in ascending price order.
func (s *subscriptionService) Plans() []models.Plan {
	ordered := []models.PlanID{models.PlanBasic, models.PlanStandard, models.PlanPremium, models.PlanUltimate}
	plans := make([]models.Plan, 0, len(ordered))
	for _, id := range ordered {
		plans = append(plans, models.Plans[id])
	}
	return plans
}

// current returns the user's subscription row, or nil if none exists.
func (s *subscriptionService) current(userID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &sub, nil
}
