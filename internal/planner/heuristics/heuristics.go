// Package heuristics holds the keyword-boost scoring tables used to
// auto-suggest a season or budget tier from free text, plus the meal split of
// the daily food budget. Each selection is a table of (keyword -> category ->
// weight) reduced by max score; ties resolve in a fixed category order so the
// result is deterministic.
package heuristics

import (
	"fmt"
	"strings"
	"time"
)

// Fixed iteration orders for deterministic tie-breaking.
var (
	seasonOrder = []string{"spring", "summer", "fall", "winter"}
	tierOrder   = []string{"budget", "medium", "luxury"}
)

// Selection is the outcome of one keyword-boost reduction.
type Selection struct {
	Choice    string
	Scores    map[string]int
	Reasoning []string
}

var seasonBoosts = map[string]map[string]int{
	"warm":         {"summer": 30, "spring": 15},
	"beach":        {"summer": 40},
	"avoid crowds": {"fall": 25, "winter": 25},
	"cheap":        {"winter": 30},
	"budget":       {"winter": 30},
	"foliage":      {"fall": 40},
	"snow":         {"winter": 40},
	"ski":          {"winter": 40},
	"flowers":      {"spring": 40},
	"hiking":       {"fall": 20, "spring": 20},
}

// AutoSelectSeason scores the four seasons against keywords in hint. With no
// hint, the season of the current month gets a small boost so the suggestion
// stays sensible.
func AutoSelectSeason(hint string, now time.Time) Selection {
	scores := map[string]int{"spring": 25, "summer": 25, "fall": 25, "winter": 25}
	var reasoning []string
	hint = strings.ToLower(strings.TrimSpace(hint))

	for keyword, boosts := range seasonBoosts {
		if !strings.Contains(hint, keyword) {
			continue
		}
		for season, boost := range boosts {
			scores[season] += boost
			reasoning = append(reasoning, fmt.Sprintf("%q -> %s +%d", keyword, season, boost))
		}
	}

	if hint == "" {
		current := seasonOfMonth(now.Month())
		scores[current] += 15
		reasoning = append(reasoning, fmt.Sprintf("current season (%s) +15", current))
	}

	return Selection{
		Choice:    maxByScore(scores, seasonOrder),
		Scores:    scores,
		Reasoning: reasoning,
	}
}

var tierBoosts = map[string]map[string]int{
	"cheap":       {"budget": 40},
	"save":        {"budget": 30},
	"backpack":    {"budget": 40},
	"moderate":    {"medium": 40},
	"comfortable": {"medium": 35},
	"splurge":     {"luxury": 40},
	"luxury":      {"luxury": 45},
	"honeymoon":   {"luxury": 40},
}

// tierDailyMidpoints is the midpoint of each tier's typical per-person daily
// spend in USD.
var tierDailyMidpoints = map[string]float64{
	"budget": 115, // 80-150
	"medium": 225, // 150-300
	"luxury": 450, // 300-600
}

// seasonMultipliers adjusts daily spend for seasonal pricing.
var seasonMultipliers = map[string]float64{
	"summer": 1.3,
	"winter": 0.8,
	"spring": 1.0,
	"fall":   1.0,
}

// AutoSelectBudgetTier scores the three budget tiers against keywords in hint
// and returns the tier plus its estimated per-person daily spend adjusted for
// the season.
func AutoSelectBudgetTier(hint, season string) (Selection, float64) {
	scores := map[string]int{"budget": 33, "medium": 34, "luxury": 33}
	var reasoning []string
	hint = strings.ToLower(strings.TrimSpace(hint))

	for keyword, boosts := range tierBoosts {
		if !strings.Contains(hint, keyword) {
			continue
		}
		for tier, boost := range boosts {
			scores[tier] += boost
			reasoning = append(reasoning, fmt.Sprintf("%q -> %s +%d", keyword, tier, boost))
		}
	}
	if hint == "" {
		scores["medium"] += 20
		reasoning = append(reasoning, "no preference -> medium +20")
	}

	sel := Selection{
		Choice:    maxByScore(scores, tierOrder),
		Scores:    scores,
		Reasoning: reasoning,
	}

	mult, ok := seasonMultipliers[strings.ToLower(season)]
	if !ok {
		mult = 1.0
	}
	return sel, tierDailyMidpoints[sel.Choice] * mult
}

// TierForDailySpend maps a per-person daily spend back to its tier label,
// used as a style hint in research prompts.
func TierForDailySpend(perPersonDaily float64) string {
	switch {
	case perPersonDaily < 150:
		return "budget"
	case perPersonDaily < 300:
		return "medium"
	default:
		return "luxury"
	}
}

// MealBudget is the split of one day's food budget across meals.
type MealBudget struct {
	Breakfast float64
	Lunch     float64
	Dinner    float64
}

// MealSplit divides the daily food budget 20/35/45 across breakfast, lunch,
// and dinner.
func MealSplit(dailyFoodBudget float64) MealBudget {
	return MealBudget{
		Breakfast: dailyFoodBudget * 0.20,
		Lunch:     dailyFoodBudget * 0.35,
		Dinner:    dailyFoodBudget * 0.45,
	}
}

func seasonOfMonth(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "fall"
	}
}

func maxByScore(scores map[string]int, order []string) string {
	best := order[0]
	for _, k := range order {
		if scores[k] > scores[best] {
			best = k
		}
	}
	return best
}
