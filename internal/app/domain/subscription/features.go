package subscription

import (
	"time"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

// HasFeature resolves "can this subscription use this capability" at the
// given instant. Each feature carries its own derivation rule; some gate on
// plan identity, some on a capability flag, some on a quota sentinel. They
// are intentionally not collapsed into a single lookup.
func HasFeature(sub *models.Subscription, feature models.Feature, now time.Time) bool {
	if sub == nil || !sub.IsActiveAt(now) {
		return false
	}

	plan, ok := PlanByID(sub.PlanID)
	if !ok {
		return false
	}

	switch feature {
	case models.FeatureWebsiteScraping:
		return len(plan.Platforms) > 0
	case models.FeatureBulkGeneration:
		return plan.ID != models.PlanTrial
	case models.FeatureAutomation:
		return plan.Automation
	case models.FeatureAnalytics:
		return plan.Analytics
	case models.FeatureYoutube:
		return plan.HasPlatform("youtube")
	case models.FeatureDMSIntegration:
		return plan.ID != models.PlanTrial
	case models.FeatureUnlimitedPosts:
		return plan.MaxPostsPerMonth == models.Unlimited
	case models.FeatureUnlimitedImages:
		return plan.MaxImages == models.Unlimited
	default:
		// Unknown feature names are denied, never defaulted open.
		return false
	}
}

// PlatformsFor returns the platforms a subscription unlocks, falling back to
// the default set when the subscription is absent or inactive.
func PlatformsFor(sub *models.Subscription, now time.Time) []string {
	if sub == nil || !sub.IsActiveAt(now) {
		return DefaultPlatforms()
	}
	plan, ok := PlanByID(sub.PlanID)
	if !ok {
		return DefaultPlatforms()
	}
	return plan.Platforms
}
