package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string   { return &s }
func intPtr(n int) *int         { return &n }
func fltPtr(f float64) *float64 { return &f }

func TestMergeKeepsPriorValuesOnNull(t *testing.T) {
	prefs := &TravelPreferences{
		Destination: strPtr("Lisbon"),
		Budget:      fltPtr(3000),
		Season:      strPtr("summer"),
	}

	// A later extraction that only learned the duration must not clobber
	// the fields it returned null for.
	prefs.Merge(&TravelPreferences{DurationDays: intPtr(5)})

	require.NotNil(t, prefs.Destination)
	assert.Equal(t, "Lisbon", *prefs.Destination)
	require.NotNil(t, prefs.Budget)
	assert.Equal(t, 3000.0, *prefs.Budget)
	require.NotNil(t, prefs.DurationDays)
	assert.Equal(t, 5, *prefs.DurationDays)
}

func TestMergeOverwritesWithNewValues(t *testing.T) {
	prefs := &TravelPreferences{Season: strPtr("winter")}
	prefs.Merge(&TravelPreferences{Season: strPtr("summer"), Interests: []string{"food"}})

	assert.Equal(t, "summer", *prefs.Season)
	assert.Equal(t, []string{"food"}, prefs.Interests)
}

func TestMissingRequiredOrder(t *testing.T) {
	var nilPrefs *TravelPreferences
	assert.Equal(t, []string{FieldSeason, FieldBudget, FieldDurationDays}, nilPrefs.MissingRequired())

	prefs := &TravelPreferences{Budget: fltPtr(2500), DurationDays: intPtr(6)}
	assert.Equal(t, []string{FieldSeason}, prefs.MissingRequired())

	prefs.Season = strPtr("summer")
	assert.Empty(t, prefs.MissingRequired())
}

func TestApplyAnswerCoercion(t *testing.T) {
	prefs := &TravelPreferences{}

	require.NoError(t, prefs.ApplyAnswer(FieldDurationDays, "7"))
	require.NotNil(t, prefs.DurationDays)
	assert.Equal(t, 7, *prefs.DurationDays)

	// JSON numbers decode as float64.
	require.NoError(t, prefs.ApplyAnswer(FieldNumPeople, float64(2)))
	assert.Equal(t, 2, *prefs.NumPeople)

	require.NoError(t, prefs.ApplyAnswer(FieldBudget, "2500.50"))
	assert.Equal(t, 2500.50, *prefs.Budget)

	require.NoError(t, prefs.ApplyAnswer(FieldSeason, "  Summer "))
	assert.Equal(t, "summer", *prefs.Season)

	require.NoError(t, prefs.ApplyAnswer(FieldDestination, " Lisbon "))
	assert.Equal(t, "Lisbon", *prefs.Destination)
}

func TestApplyAnswerRejectsBadInput(t *testing.T) {
	prefs := &TravelPreferences{}
	assert.Error(t, prefs.ApplyAnswer(FieldDurationDays, "about a week"))
	assert.Error(t, prefs.ApplyAnswer(FieldBudget, "plenty"))
	assert.Error(t, prefs.ApplyAnswer("favorite_color", "blue"))
	assert.Nil(t, prefs.DurationDays)
	assert.Nil(t, prefs.Budget)
}

func TestPeopleDefaultsToOne(t *testing.T) {
	var nilPrefs *TravelPreferences
	assert.Equal(t, 1, nilPrefs.People())
	assert.Equal(t, 1, (&TravelPreferences{}).People())
	assert.Equal(t, 1, (&TravelPreferences{NumPeople: intPtr(0)}).People())
	assert.Equal(t, 4, (&TravelPreferences{NumPeople: intPtr(4)}).People())
}
