// Package prompts renders the pipeline's prompt templates. Templates are
// embedded and filled with a token replacer (not FString) because they embed
// literal JSON braces; the result is then passed through the Eino prompt
// component so prompt callbacks still fire, mirroring how the rest of the
// message plumbing is built.
package prompts

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/tripflow/server/internal/planner/model"
)

//go:embed template/general_chat.txt
var generalChatTemplate string

//go:embed template/extract.txt
var extractTemplate string

//go:embed template/research_suggest.txt
var researchSuggestTemplate string

//go:embed template/research_named.txt
var researchNamedTemplate string

//go:embed template/season_tips.txt
var seasonTipsTemplate string

//go:embed template/plan_days.txt
var planDaysTemplate string

const (
	generalChatSystem = "You are a friendly travel planning assistant."
	extractSystem     = "You are a travel planning assistant that extracts structured data from user requests. Always return valid JSON only."
	researchSystem    = "You are a travel research expert. Always return valid JSON only, no markdown code blocks."
	seasonTipsSystem  = "You are a travel expert specializing in seasonal travel planning."
	planDaysSystem    = "You are an expert travel itinerary planner. Return only valid JSON, no markdown code blocks."
)

// render wraps a system/user pair via the Eino prompt component using a
// messages placeholder, which emits prompt callbacks without FString touching
// the JSON braces inside the content.
func render(ctx context.Context, system, user string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("conversation", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"conversation": []*schema.Message{
			schema.SystemMessage(system),
			schema.UserMessage(user),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("prompt callbacks: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("prompt callbacks: empty result")
	}
	return msgs, nil
}

// RenderGeneralChat builds the reply prompt for non-travel small talk.
func RenderGeneralChat(ctx context.Context, userRequest string) ([]*schema.Message, error) {
	content := strings.NewReplacer(
		"{user_request}", userRequest,
	).Replace(generalChatTemplate)
	return render(ctx, generalChatSystem, content)
}

// RenderExtract builds the preference-extraction prompt. Existing preferences
// are serialized so the model can fill gaps instead of restating knowns.
func RenderExtract(ctx context.Context, userRequest string, current *model.TravelPreferences) ([]*schema.Message, error) {
	currentJSON := "{}"
	if current != nil {
		b, err := json.MarshalIndent(current, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal current preferences: %w", err)
		}
		currentJSON = string(b)
	}
	content := strings.NewReplacer(
		"{user_request}", userRequest,
		"{current_preferences}", currentJSON,
	).Replace(extractTemplate)
	return render(ctx, extractSystem, content)
}

// RenderResearch builds one of the two research prompt variants: suggestions
// when no destination was given, or destination-plus-alternatives otherwise.
func RenderResearch(ctx context.Context, prefs *model.TravelPreferences, perPersonDaily float64, styleHint string) ([]*schema.Message, error) {
	season := ""
	if prefs.Season != nil {
		season = *prefs.Season
	}
	duration := 0
	if prefs.DurationDays != nil {
		duration = *prefs.DurationDays
	}
	budget := 0.0
	if prefs.Budget != nil {
		budget = *prefs.Budget
	}

	replacer := strings.NewReplacer(
		"{season}", season,
		"{duration_days}", strconv.Itoa(duration),
		"{budget}", formatMoney(budget),
		"{daily_budget}", formatMoney(perPersonDaily),
		"{num_people}", strconv.Itoa(prefs.People()),
		"{style_hint}", styleHint,
		"{destination}", deref(prefs.Destination),
	)

	template := researchSuggestTemplate
	if prefs.Destination != nil && *prefs.Destination != "" {
		template = researchNamedTemplate
	}
	return render(ctx, researchSystem, replacer.Replace(template))
}

// RenderSeasonTips builds the free-text seasonal-advice prompt.
func RenderSeasonTips(ctx context.Context, destination, season string) ([]*schema.Message, error) {
	content := strings.NewReplacer(
		"{destination}", destination,
		"{season}", season,
	).Replace(seasonTipsTemplate)
	return render(ctx, seasonTipsSystem, content)
}

// PlanDaysInput carries everything the day-planning prompt interpolates.
type PlanDaysInput struct {
	Destination     string
	DurationDays    int
	NumPeople       int
	Season          string
	Interests       []string
	Allocation      model.BudgetAllocation
	BreakfastBudget float64
	LunchBudget     float64
	DinnerBudget    float64
}

// RenderPlanDays builds the structured day-by-day planning prompt.
func RenderPlanDays(ctx context.Context, in PlanDaysInput) ([]*schema.Message, error) {
	peopleWord := "people"
	if in.NumPeople == 1 {
		peopleWord = "person"
	}
	interests := strings.Join(in.Interests, ", ")
	if interests == "" {
		interests = "general sightseeing"
	}

	content := strings.NewReplacer(
		"{destination}", in.Destination,
		"{duration_days}", strconv.Itoa(in.DurationDays),
		"{num_people}", strconv.Itoa(in.NumPeople),
		"{people_word}", peopleWord,
		"{season}", in.Season,
		"{interests}", interests,
		"{daily_budget}", formatMoney(in.Allocation.DailyBudget),
		"{per_person_daily}", formatMoney(in.Allocation.DailyBudget/float64(in.NumPeople)),
		"{accommodation_budget}", formatMoney(in.Allocation.AccommodationBudget),
		"{food_budget}", formatMoney(in.Allocation.FoodBudget),
		"{activities_budget}", formatMoney(in.Allocation.ActivitiesBudget),
		"{transport_budget}", formatMoney(in.Allocation.TransportBudget),
		"{breakfast_budget}", formatMoney(in.BreakfastBudget),
		"{lunch_budget}", formatMoney(in.LunchBudget),
		"{dinner_budget}", formatMoney(in.DinnerBudget),
	).Replace(planDaysTemplate)
	return render(ctx, planDaysSystem, content)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
