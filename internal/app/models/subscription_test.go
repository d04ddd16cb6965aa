package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsActiveAt(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("TrialWithinWindow", func(t *testing.T) {
		sub := &Subscription{Status: SubscriptionTrial, TrialEnd: now.AddDate(0, 0, 7)}
		assert.True(t, sub.IsActiveAt(now))
	})

	t.Run("TrialExpired", func(t *testing.T) {
		sub := &Subscription{Status: SubscriptionTrial, TrialEnd: now.AddDate(0, 0, -1)}
		assert.False(t, sub.IsActiveAt(now))
	})

	t.Run("ActiveWithinPeriod", func(t *testing.T) {
		sub := &Subscription{Status: SubscriptionActive, CurrentPeriodEnd: now.AddDate(0, 0, 20)}
		assert.True(t, sub.IsActiveAt(now))
	})

	t.Run("ActivePastPeriodEnd", func(t *testing.T) {
		sub := &Subscription{Status: SubscriptionActive, CurrentPeriodEnd: now.AddDate(0, 0, -2)}
		assert.False(t, sub.IsActiveAt(now))
	})

	t.Run("CancelledWithinPeriod", func(t *testing.T) {
		// Cancellation is immediate even when the paid period has time left.
		sub := &Subscription{Status: SubscriptionCancelled, CurrentPeriodEnd: now.AddDate(0, 0, 20)}
		assert.False(t, sub.IsActiveAt(now))
	})

	t.Run("PastDue", func(t *testing.T) {
		sub := &Subscription{Status: SubscriptionPastDue, CurrentPeriodEnd: now.AddDate(0, 0, 20)}
		assert.False(t, sub.IsActiveAt(now))
	})
}

func TestDaysUntilRenewalAt(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("TrialUsesTrialEnd", func(t *testing.T) {
		sub := &Subscription{
			Status:           SubscriptionTrial,
			TrialEnd:         now.AddDate(0, 0, 10),
			CurrentPeriodEnd: now.AddDate(0, 0, 25),
		}
		assert.Equal(t, 10, sub.DaysUntilRenewalAt(now))
	})

	t.Run("ActiveUsesPeriodEnd", func(t *testing.T) {
		sub := &Subscription{Status: SubscriptionActive, CurrentPeriodEnd: now.AddDate(0, 0, 25)}
		assert.Equal(t, 25, sub.DaysUntilRenewalAt(now))
	})

	t.Run("NeverNegative", func(t *testing.T) {
		sub := &Subscription{Status: SubscriptionActive, CurrentPeriodEnd: now.AddDate(0, 0, -40)}
		assert.Equal(t, 0, sub.DaysUntilRenewalAt(now))
	})

	t.Run("PartialDayRoundsDown", func(t *testing.T) {
		sub := &Subscription{Status: SubscriptionActive, CurrentPeriodEnd: now.Add(36 * time.Hour)}
		assert.Equal(t, 1, sub.DaysUntilRenewalAt(now))
	})
}

func TestPeriodEnd(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, start.Add(30*24*time.Hour), BillingMonthly.PeriodEnd(start))
	assert.Equal(t, start.Add(365*24*time.Hour), BillingYearly.PeriodEnd(start))
}
