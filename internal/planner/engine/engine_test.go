package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripflow/server/internal/planner/model"
	"github.com/tripflow/server/internal/planner/store"
)

// scriptedModel replays canned responses in order. One instance plays the
// extractor, another the writer, so each test scripts the exact sequence of
// model calls its scenario makes.
type scriptedModel struct {
	responses []string
	calls     int
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if m.calls >= len(m.responses) {
		return nil, fmt.Errorf("scripted model exhausted after %d calls", m.calls)
	}
	resp := m.responses[m.calls]
	m.calls++
	return schema.AssistantMessage(resp, nil), nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("streaming not scripted")
}

func newTestEngine(extractor, writer *scriptedModel) (*Engine, *store.MemoryItineraryStore) {
	itineraries := store.NewMemoryItineraryStore()
	eng := New(Config{
		Conversations:      store.NewMemoryConversationStore(),
		Itineraries:        itineraries,
		Extractor:          extractor,
		Writer:             writer,
		ExtractorModelName: "test-extractor",
		WriterModelName:    "test-writer",
		Now:                func() time.Time { return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC) },
	})
	return eng, itineraries
}

func collect(t *testing.T, events <-chan model.Event) []model.Event {
	t.Helper()
	var out []model.Event
	for ev := range events {
		out = append(out, ev)
	}
	require.NotEmpty(t, out)
	return out
}

func last(events []model.Event) model.Event {
	return events[len(events)-1]
}

const lisbonPrefs = `{"destination": "Lisbon", "duration_days": 5, "budget": 3000,
	"season": "summer", "num_people": 2, "interests": ["food", "history"]}`

const lisbonLocations = `{"locations": [
	{"name": "Lisbon", "avg_daily_cost": 120, "best_season": "summer",
	 "description": "Coastal capital", "highlights": ["Alfama", "Belem"]},
	{"name": "Porto", "avg_daily_cost": 95}
]}`

const lisbonDays = `{"days": [
	{"day": 1, "title": "Arrival", "hotel": {"name": "Baixa House", "cost": 110},
	 "breakfast": {"location": "cafe", "cost": 10}, "lunch": {"location": "tasca", "cost": 25},
	 "dinner": {"location": "cervejaria", "cost": 45},
	 "activities": [{"time": "15:00", "activity": "Alfama walk", "location": "Alfama", "cost": 0, "duration": "2h"}],
	 "daily_total": 400},
	{"day": 2, "title": "Belem", "hotel": {"name": "Baixa House", "cost": 110},
	 "breakfast": {"location": "pasteis", "cost": 12}, "lunch": {"location": "market", "cost": 20},
	 "dinner": {"location": "fado house", "cost": 60},
	 "activities": [{"time": "10:00", "activity": "Jeronimos", "location": "Belem", "cost": 12, "duration": "3h"}],
	 "daily_total": 380}
]}`

func TestCompleteRequestRunsToItinerary(t *testing.T) {
	extractor := &scriptedModel{responses: []string{lisbonPrefs, lisbonLocations, lisbonDays}}
	writer := &scriptedModel{responses: []string{"Pack light, book fado early."}}
	eng, itineraries := newTestEngine(extractor, writer)

	events := collect(t, eng.Run(context.Background(),
		"conv-1", "Plan a 5-day summer trip to Lisbon for 2 people with a $3000 budget"))

	final := last(events)
	require.Equal(t, model.EventComplete, final.Type, "events: %+v", events)
	require.NotNil(t, final.Itinerary)
	assert.Equal(t, "Lisbon", final.Itinerary.Destination)
	assert.Equal(t, 5, final.Itinerary.DurationDays)
	assert.Equal(t, 2, final.Itinerary.NumPeople)
	assert.Equal(t, 780.0, final.Itinerary.ActualCost)
	assert.Equal(t, 2220.0, final.Itinerary.BudgetRemaining)
	assert.Equal(t, "Pack light, book fado early.", final.Itinerary.SeasonRecommendations)

	stored, ok := itineraries.Get("conv-1")
	require.True(t, ok)
	assert.Equal(t, *final.Itinerary, stored)

	// No suspension anywhere along the way.
	for _, ev := range events {
		assert.NotEqual(t, model.EventInterrupt, ev.Type)
	}
	assert.Equal(t, 3, extractor.calls)
	assert.Equal(t, 1, writer.calls)
}

func TestMissingInfoAsksAndResumes(t *testing.T) {
	extractor := &scriptedModel{responses: []string{
		`{"interests": ["beach"]}`,
		`{"locations": [{"name": "Algarve", "avg_daily_cost": 60}]}`,
		lisbonDays,
	}}
	writer := &scriptedModel{responses: []string{"Bring sunscreen."}}
	eng, _ := newTestEngine(extractor, writer)
	ctx := context.Background()

	events := collect(t, eng.Run(ctx, "conv-2", "I want a relaxing beach vacation somewhere warm"))
	final := last(events)
	require.Equal(t, model.EventInterrupt, final.Type)
	require.NotNil(t, final.Interrupt)
	assert.Equal(t, model.PendingQuestion, final.Interrupt.Kind)
	assert.Equal(t, model.FieldSeason, final.Interrupt.Field)
	// "beach" and "warm" both point at summer.
	assert.Equal(t, "summer", final.Interrupt.Suggestion)
	assert.Equal(t, []string{model.FieldSeason, model.FieldBudget, model.FieldDurationDays}, final.Interrupt.Missing)

	// A message sent to a suspended conversation counts as the answer.
	events = collect(t, eng.Run(ctx, "conv-2", "summer"))
	final = last(events)
	require.Equal(t, model.EventInterrupt, final.Type)
	assert.Equal(t, model.FieldBudget, final.Interrupt.Field)

	events = collect(t, eng.Resume(ctx, "conv-2", 2500))
	final = last(events)
	require.Equal(t, model.EventInterrupt, final.Type)
	assert.Equal(t, model.FieldDurationDays, final.Interrupt.Field)

	// Last answer lands and research finds a single affordable candidate.
	// Even then the destination choice is the user's: the run suspends with
	// that one option instead of picking it silently.
	events = collect(t, eng.Resume(ctx, "conv-2", "6"))
	final = last(events)
	require.Equal(t, model.EventInterrupt, final.Type, "events: %+v", events)
	require.Equal(t, model.PendingSelection, final.Interrupt.Kind)
	require.Len(t, final.Interrupt.Options, 1)
	assert.Equal(t, "Algarve", final.Interrupt.Options[0].Name)

	events = collect(t, eng.Resume(ctx, "conv-2", 0))
	final = last(events)
	require.Equal(t, model.EventComplete, final.Type, "events: %+v", events)
	assert.Equal(t, "Algarve", final.Itinerary.Destination)
	assert.Equal(t, 6, final.Itinerary.DurationDays)
}

func TestDestinationSelectionBoundsChecked(t *testing.T) {
	extractor := &scriptedModel{responses: []string{
		`{"duration_days": 6, "budget": 2500, "season": "summer"}`,
		`{"locations": [
			{"name": "Algarve", "avg_daily_cost": 60},
			{"name": "Crete", "avg_daily_cost": 70},
			{"name": "Valencia", "avg_daily_cost": 75}
		]}`,
		lisbonDays,
	}}
	writer := &scriptedModel{responses: []string{"Shoulder season is quieter."}}
	eng, _ := newTestEngine(extractor, writer)
	ctx := context.Background()

	events := collect(t, eng.Run(ctx, "conv-3", "Plan a summer beach trip, 6 days, $2500"))
	final := last(events)
	require.Equal(t, model.EventInterrupt, final.Type)
	require.Equal(t, model.PendingSelection, final.Interrupt.Kind)
	require.Len(t, final.Interrupt.Options, 3)
	assert.Equal(t, 0, final.Interrupt.Options[0].Index)
	require.NotNil(t, final.Interrupt.Allocation)
	assert.InDelta(t, 2500.0/6, final.Interrupt.Allocation.DailyBudget, 1e-9)

	// Out-of-range index is rejected and the conversation stays suspended.
	events = collect(t, eng.Resume(ctx, "conv-3", 5))
	final = last(events)
	require.Equal(t, model.EventError, final.Type)
	assert.Contains(t, final.Content, "out of range")
	require.NotNil(t, final.Interrupt, "pending input should be re-surfaced")

	// Garbage answers are rejected the same way.
	events = collect(t, eng.Resume(ctx, "conv-3", "the second one"))
	assert.Equal(t, model.EventError, last(events).Type)

	// A valid index picks the candidate and finishes the run.
	events = collect(t, eng.Resume(ctx, "conv-3", 1))
	final = last(events)
	require.Equal(t, model.EventComplete, final.Type, "events: %+v", events)
	assert.Equal(t, "Crete", final.Itinerary.Destination)
}

func TestGeneralChatShortCircuits(t *testing.T) {
	extractor := &scriptedModel{}
	writer := &scriptedModel{responses: []string{"Doing great! Where shall we wander next?"}}
	eng, _ := newTestEngine(extractor, writer)

	events := collect(t, eng.Run(context.Background(), "conv-4", "How are you doing?"))

	var reply string
	for _, ev := range events {
		if ev.Type == model.EventMessage {
			reply = ev.Content
		}
	}
	assert.Equal(t, "Doing great! Where shall we wander next?", reply)
	assert.Equal(t, 0, extractor.calls)

	// The stream still terminates cleanly, just without an itinerary.
	final := last(events)
	require.Equal(t, model.EventComplete, final.Type)
	assert.Nil(t, final.Itinerary)
}

func TestGeneralChatFallsBackWhenWriterFails(t *testing.T) {
	eng, _ := newTestEngine(&scriptedModel{}, &scriptedModel{}) // writer exhausted immediately

	events := collect(t, eng.Run(context.Background(), "conv-5", "hello there"))

	var reply string
	for _, ev := range events {
		if ev.Type == model.EventMessage {
			reply = ev.Content
		}
	}
	assert.Equal(t, fallbackGreeting, reply)
}

func TestExtractionParseFailureIsTerminal(t *testing.T) {
	// Extraction returns prose with no JSON object. The turn fails without
	// retrying; the user has to resubmit.
	extractor := &scriptedModel{responses: []string{"no json here", lisbonPrefs}}
	eng, _ := newTestEngine(extractor, &scriptedModel{})

	events := collect(t, eng.Run(context.Background(), "conv-6", "plan me a trip"))

	final := last(events)
	assert.Equal(t, model.EventError, final.Type)
	assert.Contains(t, final.Content, "parse preferences")
	assert.Equal(t, 1, extractor.calls)
}

func TestSeasonTipsFailureDoesNotFailRun(t *testing.T) {
	extractor := &scriptedModel{responses: []string{lisbonPrefs, lisbonLocations, lisbonDays}}
	eng, _ := newTestEngine(extractor, &scriptedModel{}) // writer always errors

	events := collect(t, eng.Run(context.Background(), "conv-7", "5-day summer trip to Lisbon, 2 people, $3000"))

	final := last(events)
	require.Equal(t, model.EventComplete, final.Type, "events: %+v", events)
	assert.Empty(t, final.Itinerary.SeasonRecommendations)
}

func TestCompletedConversationStartsFreshTurnWithPriorPreferences(t *testing.T) {
	extractor := &scriptedModel{responses: []string{
		lisbonPrefs, lisbonLocations, lisbonDays,
		// Second turn: extraction only changes the duration.
		`{"duration_days": 3}`, lisbonLocations, lisbonDays,
	}}
	writer := &scriptedModel{responses: []string{"tips", "tips"}}
	eng, _ := newTestEngine(extractor, writer)
	ctx := context.Background()

	first := last(collect(t, eng.Run(ctx, "conv-8", "5-day summer trip to Lisbon, 2 people, $3000")))
	require.Equal(t, model.EventComplete, first.Type)

	second := last(collect(t, eng.Run(ctx, "conv-8", "Actually make that trip 3 days instead")))
	require.Equal(t, model.EventComplete, second.Type)
	assert.Equal(t, 3, second.Itinerary.DurationDays)
	// Budget and season carried over from the first turn.
	assert.Equal(t, 3000.0, second.Itinerary.TotalBudget)
	assert.Equal(t, "summer", second.Itinerary.Season)
}

func TestResumeWithoutSuspensionErrors(t *testing.T) {
	eng, _ := newTestEngine(&scriptedModel{}, &scriptedModel{})

	events := collect(t, eng.Resume(context.Background(), "conv-unknown", "summer"))

	final := last(events)
	assert.Equal(t, model.EventError, final.Type)
	assert.Contains(t, final.Content, "no suspended conversation")
}

func TestStepBudgetGuard(t *testing.T) {
	extractor := &scriptedModel{responses: []string{lisbonPrefs}}
	eng := New(Config{
		Conversations: store.NewMemoryConversationStore(),
		Itineraries:   store.NewMemoryItineraryStore(),
		Extractor:     extractor,
		Writer:        &scriptedModel{},
		MaxRunSteps:   2,
	})

	events := collect(t, eng.Run(context.Background(), "conv-9", "5-day summer trip to Lisbon, 2 people, $3000"))

	final := last(events)
	require.Equal(t, model.EventError, final.Type)
	assert.Contains(t, final.Content, "maximum")
}

func TestStatePersistedAcrossEngines(t *testing.T) {
	conversations := store.NewMemoryConversationStore()
	ctx := context.Background()

	first := New(Config{
		Conversations: conversations,
		Itineraries:   store.NewMemoryItineraryStore(),
		Extractor:     &scriptedModel{responses: []string{`{"interests": ["beach"]}`}},
		Writer:        &scriptedModel{},
	})
	events := collect(t, first.Run(ctx, "conv-10", "beach vacation please"))
	require.Equal(t, model.EventInterrupt, last(events).Type)

	// A different engine instance picks the suspended conversation back up
	// from the store, as a separate process would.
	itineraries := store.NewMemoryItineraryStore()
	second := New(Config{
		Conversations: conversations,
		Itineraries:   itineraries,
		Extractor: &scriptedModel{responses: []string{
			`{"locations": [{"name": "Algarve", "avg_daily_cost": 60}]}`,
			lisbonDays,
		}},
		Writer: &scriptedModel{responses: []string{"tips"}},
	})

	for _, answer := range []any{"summer", 2500, 6} {
		events = collect(t, second.Resume(ctx, "conv-10", answer))
	}
	final := last(events)
	require.Equal(t, model.EventInterrupt, final.Type, "events: %+v", events)
	require.Equal(t, model.PendingSelection, final.Interrupt.Kind)

	events = collect(t, second.Resume(ctx, "conv-10", 0))
	final = last(events)
	require.Equal(t, model.EventComplete, final.Type, "events: %+v", events)
	_, ok := itineraries.Get("conv-10")
	assert.True(t, ok)
}
