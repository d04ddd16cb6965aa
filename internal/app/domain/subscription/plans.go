package subscription

import "github.com/FACorreiaa/dealerflow/internal/app/models"

// TrialDays is how long a fresh signup keeps access without paying.
const TrialDays = 14

// planCatalog is the fixed plan table. Never mutated after init; price 0
// means the plan cannot be purchased.
var planCatalog = map[models.PlanID]models.Plan{
	models.PlanTrial: {
		ID:               models.PlanTrial,
		Name:             "Trial",
		PriceMonthly:     0,
		PriceYearly:      0,
		MaxPostsPerMonth: 50,
		MaxImages:        100,
		Platforms:        []string{"facebook", "instagram"},
		Automation:       false,
		Analytics:        false,
		Support:          "email",
	},
	models.PlanStarter: {
		ID:               models.PlanStarter,
		Name:             "Starter",
		PriceMonthly:     197,
		PriceYearly:      1970,
		MaxPostsPerMonth: 200,
		MaxImages:        500,
		Platforms:        []string{"facebook", "instagram", "x"},
		Automation:       true,
		Analytics:        true,
		Support:          "email",
	},
	models.PlanProfessional: {
		ID:               models.PlanProfessional,
		Name:             "Professional",
		PriceMonthly:     397,
		PriceYearly:      3970,
		MaxPostsPerMonth: 1000,
		MaxImages:        2000,
		Platforms:        []string{"facebook", "instagram", "x", "tiktok", "reddit"},
		Automation:       true,
		Analytics:        true,
		Support:          "priority",
	},
	models.PlanEnterprise: {
		ID:               models.PlanEnterprise,
		Name:             "Enterprise",
		PriceMonthly:     597,
		PriceYearly:      5970,
		MaxPostsPerMonth: models.Unlimited,
		MaxImages:        models.Unlimited,
		Platforms:        []string{"facebook", "instagram", "x", "tiktok", "reddit", "youtube"},
		Automation:       true,
		Analytics:        true,
		Support:          "phone",
	},
}

// planOrder keeps listings stable, cheapest first.
var planOrder = []models.PlanID{
	models.PlanTrial,
	models.PlanStarter,
	models.PlanProfessional,
	models.PlanEnterprise,
}

// PlanByID looks up a plan in the catalog.
func PlanByID(id models.PlanID) (models.Plan, bool) {
	plan, ok := planCatalog[id]
	return plan, ok
}

// AllPlans returns the catalog in display order.
func AllPlans() []models.Plan {
	plans := make([]models.Plan, 0, len(planOrder))
	for _, id := range planOrder {
		plans = append(plans, planCatalog[id])
	}
	return plans
}

// Price returns the plan's price for a billing cycle.
func Price(plan models.Plan, cycle models.BillingCycle) float64 {
	if cycle == models.BillingYearly {
		return plan.PriceYearly
	}
	return plan.PriceMonthly
}

// DefaultPlatforms is the access granted to callers without a resolvable
// active subscription. This is the single authoritative fallback; call
// sites must not hard-code their own list.
func DefaultPlatforms() []string {
	return []string{"facebook", "instagram"}
}
