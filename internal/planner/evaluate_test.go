package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/coachd/internal/contract"
)

func evalCandidates() []Candidate {
	return []Candidate{
		{ID: 1, Title: "Bench Press", MuscleGroups: []string{"chest", "triceps"}},
		{ID: 2, Title: "Lat Pulldown", MuscleGroups: []string{"back", "biceps"}},
		{ID: 3, Title: "Squat", MuscleGroups: []string{"quadriceps", "hips"}},
	}
}

func evalProfile() Profile {
	return Profile{
		DaysPerWeek:    3,
		SessionMinutes: 60,
		TrainingDays:   []string{"mon", "wed", "fri"},
	}
}

func TestEvaluatePlanInvalidExerciseID(t *testing.T) {
	draft := Plan{Days: []DayPlan{
		{Day: "mon", Exercises: []ExerciseItem{{ExerciseID: 99, Sets: 3, RestSec: 60}}},
	}}

	ev := EvaluatePlan(draft, evalCandidates(), evalProfile(), BuildConstraints(Profile{}))
	require.Len(t, ev.Issues, 1)
	assert.Equal(t, IssueInvalidExerciseID, ev.Issues[0].Type)
	assert.Contains(t, ev.Issues[0].Detail, "99")

	for _, w := range ev.Warnings {
		assert.NotEqual(t, WarningRank1Coverage, w.Type)
	}
}

func TestEvaluatePlanExerciseCountBounds(t *testing.T) {
	c := Constraints{MinExercisesPerDay: 2, MaxExercisesPerDay: 3}

	tooFew := Plan{Days: []DayPlan{
		{Day: "mon", Exercises: []ExerciseItem{{ExerciseID: 1, Sets: 3}}},
	}}
	ev := EvaluatePlan(tooFew, evalCandidates(), evalProfile(), c)
	require.Len(t, ev.Issues, 1)
	assert.Equal(t, IssueTooFewExercises, ev.Issues[0].Type)

	tooMany := Plan{Days: []DayPlan{
		{Day: "mon", Exercises: []ExerciseItem{
			{ExerciseID: 1, Sets: 3}, {ExerciseID: 2, Sets: 3},
			{ExerciseID: 3, Sets: 3}, {ExerciseID: 1, Sets: 3},
		}},
	}}
	ev = EvaluatePlan(tooMany, evalCandidates(), evalProfile(), c)
	require.Len(t, ev.Issues, 1)
	assert.Equal(t, IssueTooManyExercises, ev.Issues[0].Type)
}

func TestEvaluatePlanDurationWarning(t *testing.T) {
	// 8 sets at 90s rest: 8*(1+1.5) = 20 minutes, under a 60-minute session.
	within := Plan{Days: []DayPlan{
		{Day: "mon", Exercises: []ExerciseItem{{ExerciseID: 1, Sets: 8, RestSec: 90}}},
	}}
	ev := EvaluatePlan(within, evalCandidates(), evalProfile(), Constraints{MaxExercisesPerDay: 6})
	assert.Empty(t, ev.Warnings)
	assert.Empty(t, ev.Issues)

	// 30 sets pushes the estimate to 75 minutes.
	over := Plan{Days: []DayPlan{
		{Day: "mon", Exercises: []ExerciseItem{{ExerciseID: 1, Sets: 30, RestSec: 90}}},
	}}
	ev = EvaluatePlan(over, evalCandidates(), evalProfile(), Constraints{MaxExercisesPerDay: 6})
	require.Len(t, ev.Warnings, 1)
	assert.Equal(t, WarningDuration, ev.Warnings[0].Type)
	assert.Contains(t, ev.Warnings[0].Detail, "75")
	assert.Empty(t, ev.Issues, "duration is never blocking")
}

func rank1Goal() *contract.InternalGoal {
	return &contract.InternalGoal{
		GoalStyle: "hypertrophy",
		WeeklyFocusByDay: []contract.DayFocus{
			{TrainingDay: "mon", Focus: []contract.MuscleRank{
				{Muscle: "chest", Rank: 1},
				{Muscle: "triceps", Rank: 2},
			}},
		},
	}
}

func TestEvaluatePlanRank1CoverageWarning(t *testing.T) {
	p := evalProfile()
	p.InternalGoal = rank1Goal()

	// Every Monday exercise maps to back; chest never shows up.
	draft := Plan{Days: []DayPlan{
		{Day: "mon", Exercises: []ExerciseItem{
			{ExerciseID: 2, Sets: 3, RestSec: 60},
			{ExerciseID: 2, Sets: 3, RestSec: 60},
		}},
	}}

	ev := EvaluatePlan(draft, evalCandidates(), p, Constraints{MaxExercisesPerDay: 6})
	assert.Empty(t, ev.Issues)
	require.Len(t, ev.Warnings, 1)
	assert.Equal(t, WarningRank1Coverage, ev.Warnings[0].Type)
	assert.Contains(t, ev.Warnings[0].Detail, "mon")
	assert.Contains(t, ev.Warnings[0].Detail, "chest")
}

func TestEvaluatePlanRank1CoverageSatisfied(t *testing.T) {
	p := evalProfile()
	p.InternalGoal = rank1Goal()

	draft := Plan{Days: []DayPlan{
		{Day: "mon", Exercises: []ExerciseItem{{ExerciseID: 1, Sets: 3, RestSec: 60}}},
	}}

	ev := EvaluatePlan(draft, evalCandidates(), p, Constraints{MaxExercisesPerDay: 6})
	assert.Empty(t, ev.Warnings)
}

func TestEvaluatePlanExplicitPrimaryMuscleWins(t *testing.T) {
	p := evalProfile()
	p.InternalGoal = rank1Goal()

	// Candidate 2 is a back exercise, but the plan declares chest explicitly.
	draft := Plan{Days: []DayPlan{
		{Day: "mon", Exercises: []ExerciseItem{{ExerciseID: 2, Sets: 3, PrimaryMuscle: "chest"}}},
	}}

	ev := EvaluatePlan(draft, evalCandidates(), p, Constraints{MaxExercisesPerDay: 6})
	assert.Empty(t, ev.Warnings)
}

func TestMapPlanDayToToken(t *testing.T) {
	profileDays := []string{"mon", "wed", "fri"}

	tests := []struct {
		name string
		day  DayPlan
		want string
	}{
		{"explicit training_day", DayPlan{Day: "Day 1", TrainingDay: "wed"}, "wed"},
		{"recognized token", DayPlan{Day: "FRI"}, "fri"},
		{"positional day label", DayPlan{Day: "Day 2"}, "wed"},
		{"positional compact", DayPlan{Day: "day3"}, "fri"},
		{"bare index", DayPlan{Day: "1"}, "mon"},
		{"out of range", DayPlan{Day: "day 9"}, ""},
		{"unmapped label", DayPlan{Day: "push day"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapPlanDayToToken(tt.day, profileDays))
		})
	}
}

func TestEvaluatePlanSkipsUnmappedDays(t *testing.T) {
	p := evalProfile()
	p.InternalGoal = rank1Goal()

	draft := Plan{Days: []DayPlan{
		{Day: "push day", Exercises: []ExerciseItem{{ExerciseID: 2, Sets: 3}}},
	}}

	ev := EvaluatePlan(draft, evalCandidates(), p, Constraints{MaxExercisesPerDay: 6})
	assert.Empty(t, ev.Warnings, "unmapped day labels skip coverage checking")
}

func TestEstimateMinutes(t *testing.T) {
	day := DayPlan{Exercises: []ExerciseItem{
		{Sets: 3, RestSec: 60},  // 3*2 = 6
		{Sets: 4, RestSec: 90},  // 4*2.5 = 10
		{Sets: 2, RestSec: 150}, // 2*3.5 = 7
	}}
	assert.Equal(t, 23, estimateMinutes(day))
}

func TestEnrichPlan(t *testing.T) {
	draft := Plan{
		Goal:           "hypertrophy",
		DaysPerWeek:    1,
		SessionMinutes: 60,
		Split:          "full body",
		Days: []DayPlan{
			{Day: "mon", Exercises: []ExerciseItem{
				{ExerciseID: 1, Sets: 3, Reps: "8-12", RestSec: 90},
				{ExerciseID: 42, Sets: 3, Reps: "10", RestSec: 60},
			}},
		},
	}

	final := EnrichPlan(draft, evalCandidates())
	require.Len(t, final.Days, 1)
	require.Len(t, final.Days[0].Exercises, 2)

	enriched := final.Days[0].Exercises[0]
	assert.Equal(t, "Bench Press", enriched.Title)
	assert.Equal(t, []string{"chest", "triceps"}, enriched.MuscleGroups)
	assert.Equal(t, "8-12", enriched.Reps)

	// Unknown ids pass through with empty metadata.
	orphan := final.Days[0].Exercises[1]
	assert.Equal(t, 42, orphan.ExerciseID)
	assert.Empty(t, orphan.Title)
	assert.Empty(t, orphan.MuscleGroups)
}
