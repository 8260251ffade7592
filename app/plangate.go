package app

import "github.com/mkrupkin/pricefinder/app/models"

// DefaultFreePlanResultLimit caps visible offers for free-plan users. Policy
// value, overridable via FREE_PLAN_RESULT_LIMIT.
const DefaultFreePlanResultLimit = 5

const upgradeMessage = "Upgrade your plan to see all results"

// planResultCaps lists the plans whose visible result count is capped. Plans
// absent here see everything.
func planResultCaps(freeLimit int) map[models.Plan]int {
	if freeLimit <= 0 {
		freeLimit = DefaultFreePlanResultLimit
	}
	return map[models.Plan]int{
		models.PlanFree: freeLimit,
	}
}

// ApplyPlanLimit truncates an enhanced result to the plan's visible cap. The
// offers are already ranked, so the cap keeps the top N by relevance. The
// pre-truncation count is preserved so callers can advertise what an upgrade
// unlocks.
func ApplyPlanLimit(result *models.SearchResult, plan models.Plan, freeLimit int) {
	if result == nil {
		return
	}
	cap, capped := planResultCaps(freeLimit)[plan]
	if !capped || len(result.SearchResults) <= cap {
		return
	}

	result.OriginalCount = len(result.SearchResults)
	result.SearchResults = result.SearchResults[:cap]
	result.LimitedResults = true
	result.UpgradeMessage = upgradeMessage
}
