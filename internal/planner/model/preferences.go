package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names shared by extraction, the missing-info check, clarifying
// questions, and resume answers.
const (
	FieldDestination  = "destination"
	FieldDurationDays = "duration_days"
	FieldBudget       = "budget"
	FieldSeason       = "season"
	FieldNumPeople    = "num_people"
	FieldTravelDates  = "travel_dates"
)

// requiredFields is the ordered set of fields that must be present before
// research can start. The order drives which clarifying question is asked
// first.
var requiredFields = []string{FieldSeason, FieldBudget, FieldDurationDays}

// TravelPreferences is the structured extraction of trip constraints.
// Optional fields are pointers so a null returned by the model is
// distinguishable from a zero value and never clobbers an earlier answer.
type TravelPreferences struct {
	Destination       *string  `json:"destination,omitempty"`
	DurationDays      *int     `json:"duration_days,omitempty"`
	Budget            *float64 `json:"budget,omitempty"`
	Season            *string  `json:"season,omitempty"`
	NumPeople         *int     `json:"num_people,omitempty"`
	TravelDates       *string  `json:"travel_dates,omitempty"`
	Interests         []string `json:"interests,omitempty"`
	AccommodationType *string  `json:"accommodation_type,omitempty"`
	TravelStyle       *string  `json:"travel_style,omitempty"`
}

// People returns the traveller count, defaulting to 1 when unset.
func (p *TravelPreferences) People() int {
	if p == nil || p.NumPeople == nil || *p.NumPeople < 1 {
		return 1
	}
	return *p.NumPeople
}

// Merge overwrites fields of p with the non-nil fields of update. Fields the
// extraction returned null for keep their prior values.
func (p *TravelPreferences) Merge(update *TravelPreferences) {
	if update == nil {
		return
	}
	if update.Destination != nil {
		p.Destination = update.Destination
	}
	if update.DurationDays != nil {
		p.DurationDays = update.DurationDays
	}
	if update.Budget != nil {
		p.Budget = update.Budget
	}
	if update.Season != nil {
		p.Season = update.Season
	}
	if update.NumPeople != nil {
		p.NumPeople = update.NumPeople
	}
	if update.TravelDates != nil {
		p.TravelDates = update.TravelDates
	}
	if len(update.Interests) > 0 {
		p.Interests = update.Interests
	}
	if update.AccommodationType != nil {
		p.AccommodationType = update.AccommodationType
	}
	if update.TravelStyle != nil {
		p.TravelStyle = update.TravelStyle
	}
}

// MissingRequired returns the required fields that are still absent, in the
// fixed question-priority order (season, budget, duration_days).
func (p *TravelPreferences) MissingRequired() []string {
	missing := make([]string, 0, len(requiredFields))
	for _, field := range requiredFields {
		if p == nil {
			missing = append(missing, field)
			continue
		}
		switch field {
		case FieldSeason:
			if p.Season == nil {
				missing = append(missing, field)
			}
		case FieldBudget:
			if p.Budget == nil {
				missing = append(missing, field)
			}
		case FieldDurationDays:
			if p.DurationDays == nil {
				missing = append(missing, field)
			}
		}
	}
	return missing
}

// ApplyAnswer merges a resume answer into the preferences, coercing the raw
// value by field: duration_days/num_people become integers, budget becomes a
// float, everything else a trimmed string.
func (p *TravelPreferences) ApplyAnswer(field string, raw any) error {
	switch field {
	case FieldDurationDays:
		n, err := toInt(raw)
		if err != nil {
			return fmt.Errorf("answer for %s: %w", field, err)
		}
		p.DurationDays = &n
	case FieldNumPeople:
		n, err := toInt(raw)
		if err != nil {
			return fmt.Errorf("answer for %s: %w", field, err)
		}
		p.NumPeople = &n
	case FieldBudget:
		f, err := toFloat(raw)
		if err != nil {
			return fmt.Errorf("answer for %s: %w", field, err)
		}
		p.Budget = &f
	case FieldDestination:
		s := strings.TrimSpace(toString(raw))
		p.Destination = &s
	case FieldSeason:
		s := strings.ToLower(strings.TrimSpace(toString(raw)))
		p.Season = &s
	case FieldTravelDates:
		s := strings.TrimSpace(toString(raw))
		p.TravelDates = &s
	default:
		return fmt.Errorf("unknown preference field %q", field)
	}
	return nil
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		// JSON numbers decode as float64
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}

func toString(raw any) string {
	if s, ok := raw.(string); ok {
		return s
	}
	return fmt.Sprint(raw)
}
