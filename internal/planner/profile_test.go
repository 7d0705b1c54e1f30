package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeProfileDefaults(t *testing.T) {
	p, err := NormalizeProfile(Request{
		GoalText:       "build muscle",
		DaysPerWeek:    3,
		SessionMinutes: 60,
	})
	require.NoError(t, err)

	assert.Equal(t, "build muscle", p.GoalText)
	assert.Equal(t, []string{"mon", "wed", "fri"}, p.TrainingDays)
	assert.Empty(t, p.Equipment)
}

func TestNormalizeProfileDayAliases(t *testing.T) {
	tests := []struct {
		name string
		days []string
		want []string
	}{
		{"long names", []string{"Monday", "Wednesday", "Friday"}, []string{"mon", "wed", "fri"}},
		{"mixed aliases", []string{"thurs", "TUE", "saturday"}, []string{"tue", "thu", "sat"}},
		{"calendar sort", []string{"fri", "mon", "wed"}, []string{"mon", "wed", "fri"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NormalizeProfile(Request{
				GoalText:       "x",
				DaysPerWeek:    3,
				SessionMinutes: 45,
				TrainingDays:   tt.days,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.TrainingDays)
		})
	}
}

func TestNormalizeProfileFallsBackOnBadDays(t *testing.T) {
	tests := []struct {
		name string
		days []string
	}{
		{"unknown token", []string{"mon", "wed", "someday"}},
		{"wrong length", []string{"mon", "wed"}},
		{"duplicates", []string{"mon", "mon", "fri"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NormalizeProfile(Request{
				GoalText:       "x",
				DaysPerWeek:    3,
				SessionMinutes: 45,
				TrainingDays:   tt.days,
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"mon", "wed", "fri"}, p.TrainingDays)
		})
	}
}

func TestNormalizeProfilePresets(t *testing.T) {
	want := map[int][]string{
		1: {"mon"},
		2: {"mon", "thu"},
		4: {"mon", "tue", "thu", "fri"},
		7: {"mon", "tue", "wed", "thu", "fri", "sat", "sun"},
	}
	for days, expect := range want {
		p, err := NormalizeProfile(Request{GoalText: "x", DaysPerWeek: days, SessionMinutes: 45})
		require.NoError(t, err)
		assert.Equal(t, expect, p.TrainingDays, "days_per_week=%d", days)
		assert.Len(t, p.TrainingDays, days)
	}
}

func TestNormalizeProfileLegacyGoalField(t *testing.T) {
	p, err := NormalizeProfile(Request{
		Goal:           "lose weight",
		DaysPerWeek:    2,
		SessionMinutes: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "lose weight", p.GoalText)
}

func TestNormalizeProfileEquipmentCSV(t *testing.T) {
	p, err := NormalizeProfile(Request{
		GoalText:       "x",
		DaysPerWeek:    3,
		SessionMinutes: 45,
		Equipment:      "Barbell, dumbbell ,, Cable",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"barbell", "dumbbell", "cable"}, p.Equipment)
}

func TestNormalizeProfileLowercasesEnums(t *testing.T) {
	p, err := NormalizeProfile(Request{
		GoalText:       "x",
		DaysPerWeek:    3,
		SessionMinutes: 45,
		Sex:            " Male ",
		Experience:     "Intermediate",
	})
	require.NoError(t, err)
	assert.Equal(t, "male", p.Sex)
	assert.Equal(t, "intermediate", p.Experience)
}

func TestNormalizeProfileRequiredFields(t *testing.T) {
	_, err := NormalizeProfile(Request{GoalText: "x", SessionMinutes: 45})
	assert.ErrorContains(t, err, "days_per_week")

	_, err = NormalizeProfile(Request{GoalText: "x", DaysPerWeek: 3})
	assert.ErrorContains(t, err, "session_minutes")
}

func TestBuildConstraints(t *testing.T) {
	c := BuildConstraints(Profile{DaysPerWeek: 3})
	assert.Equal(t, 2, c.MaxRepairIterations)
	assert.Equal(t, 6, c.MaxExercisesPerDay)
	assert.Equal(t, 1, c.MaxRepeatSameExercise)
	assert.Zero(t, c.MinExercisesPerDay)
}
