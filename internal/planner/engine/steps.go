package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/tripflow/server/internal/planner/heuristics"
	"github.com/tripflow/server/internal/planner/model"
	"github.com/tripflow/server/internal/planner/parsers"
	"github.com/tripflow/server/internal/planner/prompts"
	logx "github.com/tripflow/server/pkg/logger"
)

// travelKeywords gates the pipeline: a message matching none of these is
// answered as general chat instead of starting a planning run.
var travelKeywords = []string{
	"travel", "trip", "vacation", "holiday", "itinerary", "destination",
	"visit", "tour", "getaway", "flight", "hotel", "beach", "backpack",
	"plan", "budget", "days", "go to", "explore",
}

func isTravelRequest(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range travelKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// fallbackGreeting covers the general-chat path when the writer model is
// unavailable.
const fallbackGreeting = "Hi! I'm your travel planning assistant. Tell me where you'd like to go, for how long, and your budget, and I'll put together an itinerary."

// failStep records a terminal step failure. There is no automatic retry; a
// failed turn requires the user to resubmit.
func failStep(st *model.TripState, step model.Step, err error) {
	logx.Error().
		Err(err).
		Str("conversation_id", st.ConversationID).
		Str("step", string(step)).
		Msg("Pipeline step failed")
	st.Fail(err.Error())
}

// stepGeneral routes the message: travel requests continue into extraction,
// everything else gets a conversational reply and ends the turn.
func (e *Engine) stepGeneral(ctx context.Context, st *model.TripState, emit func(model.Event)) {
	if isTravelRequest(st.UserRequest) {
		st.Next = model.StepExtract
		emit(model.Event{Type: model.EventStep, Stage: model.StepGeneral, Data: map[string]any{"travel_request": true}})
		return
	}

	st.IsGeneralChat = true
	st.Status = model.StatusGeneralChat

	reply := fallbackGreeting
	msgs, err := prompts.RenderGeneralChat(ctx, st.UserRequest)
	if err == nil {
		if out, genErr := e.generate(ctx, e.writer, e.writerName, st, model.StepGeneral, msgs); genErr == nil {
			reply = strings.TrimSpace(out.Content)
		} else {
			logx.Warn().Err(genErr).Str("conversation_id", st.ConversationID).Msg("General chat reply failed, using fallback")
		}
	}

	st.AppendMessage("assistant", reply)
	st.Next = model.StepEnd
	emit(model.Event{Type: model.EventMessage, Stage: model.StepGeneral, Content: reply})
}

// stepExtract pulls structured preferences out of the request and merges them
// over whatever was known before.
func (e *Engine) stepExtract(ctx context.Context, st *model.TripState, emit func(model.Event)) {
	st.Status = model.StatusAnalyzing

	msgs, err := prompts.RenderExtract(ctx, st.UserRequest, st.Preferences)
	if err != nil {
		st.Fail(err.Error())
		return
	}
	out, err := e.generate(ctx, e.extractor, e.extractorName, st, model.StepExtract, msgs)
	if err != nil {
		failStep(st, model.StepExtract, err)
		return
	}
	update, err := parsers.ParsePreferences(out.Content)
	if err != nil {
		failStep(st, model.StepExtract, fmt.Errorf("parse preferences: %w", err))
		return
	}

	if st.Preferences == nil {
		st.Preferences = &model.TravelPreferences{}
	}
	st.Preferences.Merge(update)
	st.Next = model.StepMissing
	emit(model.Event{Type: model.EventStep, Stage: model.StepExtract, Data: map[string]any{"preferences": st.Preferences}})
}

// stepMissing decides between asking a clarifying question and starting
// research.
func (e *Engine) stepMissing(ctx context.Context, st *model.TripState, emit func(model.Event)) {
	st.MissingInfo = st.Preferences.MissingRequired()
	st.NeedsDestinationResearch = st.Preferences == nil ||
		st.Preferences.Destination == nil || *st.Preferences.Destination == ""

	if len(st.MissingInfo) > 0 {
		st.Status = model.StatusMissingInfo
		st.Next = model.StepAskQuestion
	} else {
		st.Status = model.StatusResearching
		st.Next = model.StepResearch
	}
	emit(model.Event{Type: model.EventStep, Stage: model.StepMissing, Data: map[string]any{
		"missing":                    st.MissingInfo,
		"needs_destination_research": st.NeedsDestinationResearch,
	}})
}

var fieldQuestions = map[string]string{
	model.FieldSeason:       "What season would you like to travel in? (spring, summer, fall, or winter)",
	model.FieldBudget:       "What's your total budget for this trip, in USD?",
	model.FieldDurationDays: "How many days will your trip be?",
}

// stepAskQuestion suspends for the first missing field. A heuristic
// suggestion rides along so callers can offer a default.
func (e *Engine) stepAskQuestion(ctx context.Context, st *model.TripState) {
	field := st.MissingInfo[0]
	question, ok := fieldQuestions[field]
	if !ok {
		question = fmt.Sprintf("Please provide a value for %s.", field)
	}

	suggestion := ""
	switch field {
	case model.FieldSeason:
		sel := heuristics.AutoSelectSeason(st.UserRequest, e.now())
		suggestion = sel.Choice
	case model.FieldBudget:
		season := ""
		if st.Preferences != nil && st.Preferences.Season != nil {
			season = *st.Preferences.Season
		}
		sel, daily := heuristics.AutoSelectBudgetTier(st.UserRequest, season)
		suggestion = fmt.Sprintf("%s (~$%.0f per person per day)", sel.Choice, daily)
	}

	st.AppendMessage("assistant", question)
	st.Pending = &model.PendingInput{
		Kind:       model.PendingQuestion,
		Field:      field,
		Question:   question,
		Suggestion: suggestion,
		Missing:    st.MissingInfo,
	}
	// Re-run the missing check after the answer lands.
	st.Next = model.StepMissing
}

// stepResearch asks the model for destination candidates: suggestions when no
// destination was named, the named destination plus alternatives otherwise.
func (e *Engine) stepResearch(ctx context.Context, st *model.TripState, emit func(model.Event)) {
	prefs := st.Preferences
	perPersonDaily := 0.0
	if prefs.Budget != nil && prefs.DurationDays != nil && *prefs.DurationDays > 0 {
		perPersonDaily = *prefs.Budget / float64(*prefs.DurationDays) / float64(prefs.People())
	}
	styleHint := heuristics.TierForDailySpend(perPersonDaily)

	msgs, err := prompts.RenderResearch(ctx, prefs, perPersonDaily, styleHint)
	if err != nil {
		st.Fail(err.Error())
		return
	}
	out, err := e.generate(ctx, e.extractor, e.extractorName, st, model.StepResearch, msgs)
	if err != nil {
		failStep(st, model.StepResearch, err)
		return
	}
	locations, err := parsers.ParseLocations(out.Content)
	if err != nil {
		failStep(st, model.StepResearch, fmt.Errorf("parse locations: %w", err))
		return
	}

	st.ResearchData = locations
	st.Next = model.StepAnalyze
	emit(model.Event{Type: model.EventStep, Stage: model.StepResearch, Data: map[string]any{"candidates": len(locations)}})
}

// maxSelectionOptions caps how many candidates a selection interrupt offers.
const maxSelectionOptions = 7

// stepAnalyze allocates the budget, filters candidates against it, and either
// settles on a destination or suspends for the user to pick one.
func (e *Engine) stepAnalyze(ctx context.Context, st *model.TripState, emit func(model.Event)) {
	prefs := st.Preferences
	if prefs == nil || prefs.Budget == nil || prefs.DurationDays == nil || *prefs.DurationDays <= 0 {
		st.Fail("budget analysis requires a budget and trip duration")
		return
	}
	if len(st.ResearchData) == 0 {
		st.Fail("no research data available for budget analysis")
		return
	}

	alloc := model.AllocateBudget(*prefs.Budget, *prefs.DurationDays)
	st.BudgetAllocation = &alloc

	perPersonDaily := alloc.DailyBudget / float64(prefs.People())
	st.FilteredLocations = model.FilterByBudget(st.ResearchData, perPersonDaily)

	emit(model.Event{Type: model.EventStep, Stage: model.StepAnalyze, Data: map[string]any{
		"budget_allocation": alloc,
		"filtered":          len(st.FilteredLocations),
	}})

	if !st.NeedsDestinationResearch {
		// Destination was named up front; prefer the researched entry that
		// matches it so costs come from research rather than assumptions.
		chosen := st.FilteredLocations[0]
		want := strings.ToLower(strings.TrimSpace(*prefs.Destination))
		for _, c := range st.FilteredLocations {
			if strings.Contains(strings.ToLower(c.Name), want) {
				chosen = c
				break
			}
		}
		st.SelectedLocation = &chosen
		st.Status = model.StatusAnalyzed
		st.Next = model.StepSeasonTips
		return
	}

	// No destination was named, so the user picks one. This holds even for a
	// single affordable candidate: the choice stays with the user.
	options := make([]model.LocationOption, 0, maxSelectionOptions)
	for i, c := range st.FilteredLocations {
		if i >= maxSelectionOptions {
			break
		}
		options = append(options, model.LocationOption{Index: i, LocationCandidate: c})
	}

	question := fmt.Sprintf("I found %d destinations that fit your budget. Which one would you like? Reply with the option index.", len(options))
	st.AppendMessage("assistant", question)
	st.NeedsDestinationSelection = true
	st.Status = model.StatusAnalyzed
	st.Pending = &model.PendingInput{
		Kind:       model.PendingSelection,
		Question:   question,
		Options:    options,
		Allocation: st.BudgetAllocation,
	}
	// The resume handler advances past analysis once a valid index arrives.
	st.Next = model.StepAnalyze
}

// stepSeasonTips fetches seasonal advice for the chosen destination. Best
// effort: a failure here degrades the itinerary, it does not fail the run.
func (e *Engine) stepSeasonTips(ctx context.Context, st *model.TripState, emit func(model.Event)) {
	season := ""
	if st.Preferences != nil && st.Preferences.Season != nil {
		season = *st.Preferences.Season
	}

	msgs, err := prompts.RenderSeasonTips(ctx, st.SelectedLocation.Name, season)
	if err == nil {
		if out, genErr := e.generate(ctx, e.writer, e.writerName, st, model.StepSeasonTips, msgs); genErr == nil {
			tips := strings.TrimSpace(out.Content)
			st.SeasonRecommendations = &tips
		} else {
			logx.Warn().Err(genErr).Str("conversation_id", st.ConversationID).Msg("Season recommendations failed, continuing without")
		}
	}

	st.Status = model.StatusPlanning
	st.Next = model.StepPlanDays
	emit(model.Event{Type: model.EventStep, Stage: model.StepSeasonTips, Data: map[string]any{
		"has_recommendations": st.SeasonRecommendations != nil,
	}})
}

// stepPlanDays generates the structured day-by-day plan.
func (e *Engine) stepPlanDays(ctx context.Context, st *model.TripState, emit func(model.Event)) {
	prefs := st.Preferences
	alloc := st.BudgetAllocation
	if alloc == nil || st.SelectedLocation == nil || prefs == nil || prefs.DurationDays == nil {
		st.Fail("day planning requires a selected destination and budget allocation")
		return
	}

	season := ""
	if prefs.Season != nil {
		season = *prefs.Season
	}
	meals := heuristics.MealSplit(alloc.FoodBudget)

	msgs, err := prompts.RenderPlanDays(ctx, prompts.PlanDaysInput{
		Destination:     st.SelectedLocation.Name,
		DurationDays:    *prefs.DurationDays,
		NumPeople:       prefs.People(),
		Season:          season,
		Interests:       prefs.Interests,
		Allocation:      *alloc,
		BreakfastBudget: meals.Breakfast,
		LunchBudget:     meals.Lunch,
		DinnerBudget:    meals.Dinner,
	})
	if err != nil {
		st.Fail(err.Error())
		return
	}
	out, err := e.generate(ctx, e.extractor, e.extractorName, st, model.StepPlanDays, msgs)
	if err != nil {
		failStep(st, model.StepPlanDays, err)
		return
	}
	plans, err := parsers.ParseDailyPlans(out.Content)
	if err != nil {
		failStep(st, model.StepPlanDays, fmt.Errorf("parse daily plans: %w", err))
		return
	}
	if len(plans) == 0 {
		st.Fail("day planning returned no days")
		return
	}

	st.DailyPlans = plans
	st.Status = model.StatusFinalizing
	st.Next = model.StepFinalize
	emit(model.Event{Type: model.EventStep, Stage: model.StepPlanDays, Data: map[string]any{"days": len(plans)}})
}

// stepFinalize assembles and persists the itinerary. Rebuilding from the same
// state yields the same record, so finalization is safe to repeat.
func (e *Engine) stepFinalize(ctx context.Context, st *model.TripState, emit func(model.Event)) {
	if st.Preferences == nil || st.BudgetAllocation == nil || st.SelectedLocation == nil || len(st.DailyPlans) == 0 {
		st.Fail("finalization requires preferences, a budget allocation, a destination, and daily plans")
		return
	}

	tips := ""
	if st.SeasonRecommendations != nil {
		tips = *st.SeasonRecommendations
	}
	itinerary := model.BuildItinerary(st.Preferences, *st.BudgetAllocation, *st.SelectedLocation, tips, st.DailyPlans)
	st.Itinerary = &itinerary

	if e.itineraries != nil {
		if err := e.itineraries.Save(ctx, st.ConversationID, st.Itinerary); err != nil {
			st.Fail(fmt.Sprintf("persist itinerary: %v", err))
			return
		}
	}

	st.Status = model.StatusCompleted
	st.Next = model.StepEnd

	logx.Info().
		Str("conversation_id", st.ConversationID).
		Str("destination", itinerary.Destination).
		Int("days", itinerary.DurationDays).
		Float64("actual_cost", itinerary.ActualCost).
		Msg("Itinerary completed")
	emit(model.Event{Type: model.EventStep, Stage: model.StepFinalize, Data: map[string]any{
		"destination": itinerary.Destination,
		"actual_cost": itinerary.ActualCost,
	}})
}
