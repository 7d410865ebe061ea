package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripflow/server/internal/planner/model"
)

func TestMemoryConversationStoreRoundTrip(t *testing.T) {
	s := NewMemoryConversationStore()
	ctx := context.Background()

	st, err := s.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, st, "unknown conversations load as nil, nil")

	season := "summer"
	original := model.NewTripState("conv-1", "beach trip", &model.TravelPreferences{Season: &season})
	original.Pending = &model.PendingInput{
		Kind:     model.PendingQuestion,
		Field:    model.FieldBudget,
		Question: "What's your total budget for this trip, in USD?",
	}
	require.NoError(t, s.Save(ctx, "conv-1", original))

	loaded, err := s.Load(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, original, loaded)

	// Loads are copies: mutating one must not leak into later loads. This is
	// what lets a suspended continuation survive a failed resume attempt.
	loaded.Pending = nil
	loaded.Status = model.StatusFailed

	again, err := s.Load(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, again.Pending)
	assert.Equal(t, model.StatusAnalyzing, again.Status)
}

func TestMemoryItineraryStore(t *testing.T) {
	s := NewMemoryItineraryStore()
	ctx := context.Background()

	_, ok := s.Get("conv-1")
	assert.False(t, ok)

	it := &model.Itinerary{Destination: "Lisbon", DurationDays: 5, TotalBudget: 3000}
	require.NoError(t, s.Save(ctx, "conv-1", it))

	stored, ok := s.Get("conv-1")
	require.True(t, ok)
	assert.Equal(t, *it, stored)
}
