package model

// LocationCandidate is one researched destination. Immutable once produced by
// the research step.
type LocationCandidate struct {
	Name         string   `json:"name"`
	AvgDailyCost float64  `json:"avg_daily_cost"`
	BestSeason   string   `json:"best_season,omitempty"`
	SeasonNotes  string   `json:"season_notes,omitempty"`
	Description  string   `json:"description,omitempty"`
	Highlights   []string `json:"highlights,omitempty"`
}

// LocationOption is a candidate presented to the user during destination
// selection; Index is the value the resume answer must supply.
type LocationOption struct {
	Index int `json:"index"`
	LocationCandidate
}
