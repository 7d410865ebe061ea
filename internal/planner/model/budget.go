package model

import "sort"

// Percentage splits of the daily budget across spending categories.
const (
	accommodationShare = 0.40
	foodShare          = 0.25
	activitiesShare    = 0.25
	transportShare     = 0.05
	contingencyShare   = 0.05
)

// budgetTolerance is the headroom applied when filtering candidates against
// the per-person daily budget.
const budgetTolerance = 1.15

// fallbackCandidates is how many of the cheapest candidates survive when
// nothing fits the budget. The fallback keeps the pipeline moving even though
// it silently exceeds the constraint; see DESIGN.md.
const fallbackCandidates = 5

// BudgetAllocation is the derived percentage-based split of the trip budget.
type BudgetAllocation struct {
	TotalBudget         float64 `json:"total_budget"`
	DailyBudget         float64 `json:"daily_budget"`
	AccommodationBudget float64 `json:"accommodation_budget"`
	FoodBudget          float64 `json:"food_budget"`
	ActivitiesBudget    float64 `json:"activities_budget"`
	TransportBudget     float64 `json:"transport_budget"`
	Contingency         float64 `json:"contingency"`
}

// AllocateBudget computes the category breakdown from the total budget and
// trip duration.
func AllocateBudget(totalBudget float64, durationDays int) BudgetAllocation {
	daily := totalBudget / float64(durationDays)
	return BudgetAllocation{
		TotalBudget:         totalBudget,
		DailyBudget:         daily,
		AccommodationBudget: daily * accommodationShare,
		FoodBudget:          daily * foodShare,
		ActivitiesBudget:    daily * activitiesShare,
		TransportBudget:     daily * transportShare,
		Contingency:         daily * contingencyShare,
	}
}

// FilterByBudget keeps candidates whose daily cost fits the per-person daily
// budget with tolerance headroom. When nothing fits it falls back to the
// cheapest candidates so the pipeline can still make progress.
func FilterByBudget(candidates []LocationCandidate, perPersonDaily float64) []LocationCandidate {
	filtered := make([]LocationCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.AvgDailyCost <= perPersonDaily*budgetTolerance {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) > 0 {
		return filtered
	}

	cheapest := make([]LocationCandidate, len(candidates))
	copy(cheapest, candidates)
	sort.SliceStable(cheapest, func(i, j int) bool {
		return cheapest[i].AvgDailyCost < cheapest[j].AvgDailyCost
	})
	if len(cheapest) > fallbackCandidates {
		cheapest = cheapest[:fallbackCandidates]
	}
	return cheapest
}
