package models

import (
	"time"

	"github.com/google/uuid"
)

// PlanID identifies one of the fixed subscription plans.
type PlanID string

const (
	PlanTrial        PlanID = "trial"
	PlanStarter      PlanID = "starter"
	PlanProfessional PlanID = "professional"
	PlanEnterprise   PlanID = "enterprise"
)

// SubscriptionStatus is the stored lifecycle state of a subscription.
// Expiry is derived from timestamps, never stored.
type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// BillingCycle selects the length of a billing period.
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// Unlimited marks a quota with no cap.
const Unlimited int64 = -1

// Feature names a gateable capability.
type Feature string

const (
	FeatureWebsiteScraping Feature = "website_scraping"
	FeatureBulkGeneration  Feature = "bulk_generation"
	FeatureAutomation      Feature = "automation"
	FeatureAnalytics       Feature = "analytics"
	FeatureYoutube         Feature = "youtube"
	FeatureDMSIntegration  Feature = "dms_integration"
	FeatureUnlimitedPosts  Feature = "unlimited_posts"
	FeatureUnlimitedImages Feature = "unlimited_images"
)

// Plan is an immutable capability bundle from the static catalog.
type Plan struct {
	ID               PlanID   `json:"id"`
	Name             string   `json:"name"`
	PriceMonthly     float64  `json:"price_monthly"`
	PriceYearly      float64  `json:"price_yearly"`
	MaxPostsPerMonth int64    `json:"max_posts_per_month"`
	MaxImages        int64    `json:"max_images"`
	Platforms        []string `json:"platforms"`
	Automation       bool     `json:"automation"`
	Analytics        bool     `json:"analytics"`
	Support          string   `json:"support"`
}

// HasPlatform reports whether the plan includes the named social platform.
func (p Plan) HasPlatform(platform string) bool {
	for _, existing := range p.Platforms {
		if existing == platform {
			return true
		}
	}
	return false
}

// Subscription is the single billing record a dealership holds at a time.
type Subscription struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	DealershipID       uuid.UUID          `json:"dealership_id" db:"dealership_id"`
	PlanID             PlanID             `json:"plan" db:"plan_id"`
	Status             SubscriptionStatus `json:"status" db:"status"`
	BillingCycle       BillingCycle       `json:"billing_cycle" db:"billing_cycle"`
	Amount             float64            `json:"amount" db:"amount"`
	CurrentPeriodStart time.Time          `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd   time.Time          `json:"current_period_end" db:"current_period_end"`
	TrialEnd           time.Time          `json:"trial_end" db:"trial_end"`
	Provider           string             `json:"provider,omitempty" db:"provider"`
	ProviderCustomerID string             `json:"provider_customer_id,omitempty" db:"provider_customer_id"`
	ProviderSubID      string             `json:"provider_subscription_id,omitempty" db:"provider_subscription_id"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// IsActiveAt reports whether the subscription grants access at the given
// instant. Trials live until trial_end; anything else requires active status
// inside the current period. The answer changes with time alone, so it is
// recomputed on every call and never stored.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	if s.Status == SubscriptionTrial {
		return !now.After(s.TrialEnd)
	}
	return s.Status == SubscriptionActive && !now.After(s.CurrentPeriodEnd)
}

// DaysUntilRenewalAt returns whole days until the relevant period boundary,
// floored at zero.
func (s *Subscription) DaysUntilRenewalAt(now time.Time) int {
	end := s.CurrentPeriodEnd
	if s.Status == SubscriptionTrial {
		end = s.TrialEnd
	}
	days := int(end.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// PeriodEnd computes the period boundary for a cycle starting at start.
func (c BillingCycle) PeriodEnd(start time.Time) time.Time {
	if c == BillingYearly {
		return start.Add(365 * 24 * time.Hour)
	}
	return start.Add(30 * 24 * time.Hour)
}

// FeatureAccess is derived per request from the subscription and plan,
// never persisted.
type FeatureAccess struct {
	IsActive         bool     `json:"is_active"`
	PlanID           PlanID   `json:"plan"`
	Platforms        []string `json:"platforms"`
	MaxPostsPerMonth int64    `json:"max_posts_per_month"`
	MaxImages        int64    `json:"max_images"`
	Automation       bool     `json:"automation"`
	Analytics        bool     `json:"analytics"`
	DaysUntilRenewal int      `json:"days_until_renewal"`
}

// UpgradeRequest is the payload for a plan change.
type UpgradeRequest struct {
	Plan         PlanID       `json:"plan" binding:"required"`
	BillingCycle BillingCycle `json:"billing_cycle"`
}
