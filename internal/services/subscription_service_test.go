package services

import (
	"testing"
	"time"

	"papertrade/internal/models"
	"papertrade/internal/testutil"
)

func TestEffectiveLimit(t *testing.T) {
	t.Run("no_subscription", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSubscriptionService(db)
		user := testutil.CreateTestUser(t, db)

		limit, err := svc.EffectiveLimit(user.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, models.FreeTierLimit, limit)
	})

	t.Run("active_subscription", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSubscriptionService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestSubscription(t, db, user.ID, models.PlanStandard)

		limit, err := svc.EffectiveLimit(user.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, models.Plans[models.PlanStandard].CreditLimit, limit)
	})

	t.Run("expired_subscription_falls_back", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSubscriptionService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateExpiredSubscription(t, db, user.ID, models.PlanUltimate)

		limit, err := svc.EffectiveLimit(user.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, models.FreeTierLimit, limit)
	})
}

func TestPurchase(t *testing.T) {
	t.Run("grants_plan", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSubscriptionService(db)
		user := testutil.CreateTestUser(t, db)

		sub, err := svc.Purchase(user.ID, models.PlanPremium)
		testutil.AssertNoError(t, err)

		if sub.PlanID != models.PlanPremium {
			t.Errorf("expected premium plan, got %s", sub.PlanID)
		}
		testutil.AssertDecimalEqual(t, models.Plans[models.PlanPremium].CreditLimit, sub.CreditLimit)
		if !sub.Active(time.Now()) {
			t.Error("expected subscription to be active")
		}

		wantExpiry := time.Now().AddDate(0, 0, 30)
		if diff := sub.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
			t.Errorf("expected expiry around %v, got %v", wantExpiry, sub.ExpiresAt)
		}
	})

	t.Run("repurchase_replaces_existing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSubscriptionService(db)
		user := testutil.CreateTestUser(t, db)

		first, err := svc.Purchase(user.ID, models.PlanBasic)
		testutil.AssertNoError(t, err)
		second, err := svc.Purchase(user.ID, models.PlanUltimate)
		testutil.AssertNoError(t, err)

		if first.ID != second.ID {
			t.Errorf("expected repurchase to reuse the row, got %s and %s", first.ID, second.ID)
		}
		testutil.AssertDecimalEqual(t, models.Plans[models.PlanUltimate].CreditLimit, second.CreditLimit)

		var count int64
		db.Model(&models.Subscription{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected a single subscription row, got %d", count)
		}
	})

	t.Run("unknown_plan", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSubscriptionService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Purchase(user.ID, "platinum")
		testutil.AssertAppError(t, err, "INVALID_PLAN")
	})
}

func TestStatus(t *testing.T) {
	t.Run("without_subscription", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSubscriptionService(db)
		user := testutil.CreateTestUser(t, db)

		status, err := svc.Status(user.ID)
		testutil.AssertNoError(t, err)
		if status.HasSubscription {
			t.Error("expected no active subscription")
		}
		testutil.AssertDecimalEqual(t, models.FreeTierLimit, status.TradingLimit)
	})

	t.Run("with_active_subscription", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSubscriptionService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestSubscription(t, db, user.ID, models.PlanBasic)

		status, err := svc.Status(user.ID)
		testutil.AssertNoError(t, err)
		if !status.HasSubscription {
			t.Error("expected active subscription")
		}
		testutil.AssertDecimalEqual(t, models.Plans[models.PlanBasic].CreditLimit, status.TradingLimit)
	})

	t.Run("with_expired_subscription", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSubscriptionService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateExpiredSubscription(t, db, user.ID, models.PlanBasic)

		status, err := svc.Status(user.ID)
		testutil.AssertNoError(t, err)
		if status.HasSubscription {
			t.Error("expected expired subscription to report inactive")
		}
		testutil.AssertDecimalEqual(t, models.FreeTierLimit, status.TradingLimit)
		if status.Subscription == nil {
			t.Error("expected expired subscription row to still be returned")
		}
	})
}

func TestPlans(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewSubscriptionService(db)

	plans := svc.Plans()
	if len(plans) != 4 {
		t.Fatalf("expected 4 plans, got %d", len(plans))
	}
	for i := 1; i < len(plans); i++ {
		if !plans[i].Price.GreaterThan(plans[i-1].Price) {
			t.Errorf("expected plans in ascending price order, got %s before %s", plans[i-1].ID, plans[i].ID)
		}
	}
}
