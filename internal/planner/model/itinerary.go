package model

// Hotel is the nightly stay entry of a daily plan.
type Hotel struct {
	Name string  `json:"name"`
	Cost float64 `json:"cost"`
}

// Meal is one meal entry of a daily plan.
type Meal struct {
	Location string  `json:"location"`
	Cost     float64 `json:"cost"`
}

// Activity is one scheduled activity of a daily plan.
type Activity struct {
	Time     string  `json:"time"`
	Activity string  `json:"activity"`
	Location string  `json:"location"`
	Cost     float64 `json:"cost"`
	Duration string  `json:"duration"`
}

// DailyPlan is one day of the generated itinerary.
type DailyPlan struct {
	Day         int        `json:"day"`
	Title       string     `json:"title"`
	Weather     string     `json:"weather,omitempty"`
	SeasonNotes string     `json:"season_notes,omitempty"`
	Hotel       Hotel      `json:"hotel"`
	Breakfast   Meal       `json:"breakfast"`
	Lunch       Meal       `json:"lunch"`
	Dinner      Meal       `json:"dinner"`
	Activities  []Activity `json:"activities,omitempty"`
	DailyTotal  float64    `json:"daily_total"`
}

// ItinerarySummary aggregates headline figures of the finished plan.
type ItinerarySummary struct {
	DestinationDescription string  `json:"destination_description,omitempty"`
	BestSeason             string  `json:"best_season,omitempty"`
	AvgDailyCost           float64 `json:"avg_daily_cost"`
	TotalDays              int     `json:"total_days"`
	TotalActivities        int     `json:"total_activities"`
}

// Itinerary is the finalized, persisted output of the pipeline. Created once
// at the terminal state and immutable thereafter.
type Itinerary struct {
	Destination           string           `json:"destination"`
	DurationDays          int              `json:"duration_days"`
	NumPeople             int              `json:"num_people"`
	Season                string           `json:"season,omitempty"`
	TravelDates           string           `json:"travel_dates,omitempty"`
	TotalBudget           float64          `json:"total_budget"`
	ActualCost            float64          `json:"actual_cost"`
	BudgetRemaining       float64          `json:"budget_remaining"`
	BudgetAllocation      BudgetAllocation `json:"budget_allocation"`
	SeasonRecommendations string           `json:"season_recommendations,omitempty"`
	DailyItinerary        []DailyPlan      `json:"daily_itinerary"`
	Summary               ItinerarySummary `json:"summary"`
}

// BuildItinerary assembles the final itinerary from the accumulated pipeline
// state. Pure: rebuilding from identical inputs yields an identical record,
// which is what makes finalization idempotent. Budget remaining may go
// negative; it is reported as-is.
func BuildItinerary(
	prefs *TravelPreferences,
	alloc BudgetAllocation,
	selected LocationCandidate,
	seasonRecommendations string,
	plans []DailyPlan,
) Itinerary {
	var actual float64
	var activities int
	for _, day := range plans {
		actual += day.DailyTotal
		activities += len(day.Activities)
	}

	it := Itinerary{
		Destination:           selected.Name,
		NumPeople:             prefs.People(),
		ActualCost:            actual,
		BudgetAllocation:      alloc,
		SeasonRecommendations: seasonRecommendations,
		DailyItinerary:        plans,
		Summary: ItinerarySummary{
			DestinationDescription: selected.Description,
			BestSeason:             selected.BestSeason,
			AvgDailyCost:           selected.AvgDailyCost,
			TotalDays:              len(plans),
			TotalActivities:        activities,
		},
	}
	if prefs.DurationDays != nil {
		it.DurationDays = *prefs.DurationDays
	}
	if prefs.Season != nil {
		it.Season = *prefs.Season
	}
	if prefs.TravelDates != nil {
		it.TravelDates = *prefs.TravelDates
	}
	if prefs.Budget != nil {
		it.TotalBudget = *prefs.Budget
		it.BudgetRemaining = *prefs.Budget - actual
	}
	return it
}
