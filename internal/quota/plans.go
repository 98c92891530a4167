package quota

import (
	"strconv"

	"stockwatch/internal/models"
)

// Limit is a plan's tracked-product capacity. Unlimited plans use the
// Unlimited flag instead of a large Max so nothing can truncate them.
type Limit struct {
	Max       int
	Unlimited bool
}

var Unlimited = Limit{Unlimited: true}

// Allows reports whether count tracked products fit inside the limit.
func (l Limit) Allows(count int) bool {
	return l.Unlimited || count <= l.Max
}

func (l Limit) String() string {
	if l.Unlimited {
		return "unlimited"
	}
	return strconv.Itoa(l.Max)
}

// Features are the plan-gated capabilities outside the product limit.
type Features struct {
	ChatAlerts    bool
	RestockAlerts bool
}

type plan struct {
	limit    Limit
	features Features
}

var plans = map[models.Plan]plan{
	models.PlanFree:       {limit: Limit{Max: 10}},
	models.PlanBasic:      {limit: Limit{Max: 100}, features: Features{RestockAlerts: true}},
	models.PlanPro:        {limit: Limit{Max: 1000}, features: Features{ChatAlerts: true, RestockAlerts: true}},
	models.PlanEnterprise: {limit: Unlimited, features: Features{ChatAlerts: true, RestockAlerts: true}},
}

// PlanLimit returns the product limit for a tier. Unknown tiers get the free
// tier's limit.
func PlanLimit(p models.Plan) Limit {
	if cfg, ok := plans[p]; ok {
		return cfg.limit
	}
	return plans[models.PlanFree].limit
}

func FeaturesFor(p models.Plan) Features {
	return plans[p].features
}

// Valid reports whether p is a known tier.
func Valid(p models.Plan) bool {
	_, ok := plans[p]
	return ok
}
