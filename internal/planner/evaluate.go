package planner

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/coachd/internal/contract"
)

// estimateMinutes estimates one day's duration: each set costs one working
// minute plus its rest, rounded to the nearest minute over the day.
func estimateMinutes(day DayPlan) int {
	total := 0.0
	for _, ex := range day.Exercises {
		total += float64(ex.Sets) * (1.0 + float64(ex.RestSec)/60.0)
	}
	return int(math.Round(total))
}

// mapPlanDayToToken resolves a plan day to a mon..sun token: the explicit
// training_day field first, then a recognized day token in the label, then a
// positional index parsed from labels like "day 1". Returns "" when no
// heuristic applies; callers skip coverage checking for unmapped days.
func mapPlanDayToToken(day DayPlan, profileDays []string) string {
	if td := strings.ToLower(strings.TrimSpace(day.TrainingDay)); td != "" {
		return td
	}

	label := strings.ToLower(strings.TrimSpace(day.Day))
	if contract.IsValidTrainingDay(label) {
		return label
	}

	idx := -1
	if strings.HasPrefix(label, "day") {
		if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(label, "day"))); err == nil {
			idx = n - 1
		}
	} else if n, err := strconv.Atoi(label); err == nil {
		idx = n - 1
	}

	if idx >= 0 && idx < len(profileDays) {
		return strings.ToLower(strings.TrimSpace(profileDays[idx]))
	}
	return ""
}

func primaryMuscleLookup(candidates []Candidate) map[int]string {
	lookup := make(map[int]string, len(candidates))
	for _, c := range candidates {
		lookup[c.ID] = c.PrimaryMuscle()
	}
	return lookup
}

func dayLabel(day DayPlan) string {
	if day.TrainingDay != "" {
		return day.TrainingDay
	}
	if day.Day != "" {
		return day.Day
	}
	return "day"
}

// EvaluatePlan validates a draft against the candidate pool and constraints.
// Rules run in a fixed order: candidate id membership, per-day exercise
// count bounds, estimated duration (warning only), and rank-1 muscle
// coverage per mapped day (warning only).
func EvaluatePlan(draft Plan, candidates []Candidate, p Profile, c Constraints) Evaluation {
	var ev Evaluation

	candidateIDs := make(map[int]struct{}, len(candidates))
	for _, cand := range candidates {
		candidateIDs[cand.ID] = struct{}{}
	}
	primaries := primaryMuscleLookup(candidates)

	for _, day := range draft.Days {
		for _, ex := range day.Exercises {
			if _, ok := candidateIDs[ex.ExerciseID]; !ok {
				ev.Issues = append(ev.Issues, Issue{
					Type:   IssueInvalidExerciseID,
					Detail: fmt.Sprintf("exercise_id=%d is not in the candidate pool", ex.ExerciseID),
				})
			}
		}
	}

	for _, day := range draft.Days {
		n := len(day.Exercises)
		label := dayLabel(day)

		if c.MinExercisesPerDay > 0 && n < c.MinExercisesPerDay {
			ev.Issues = append(ev.Issues, Issue{
				Type:   IssueTooFewExercises,
				Detail: fmt.Sprintf("%s has fewer than %d exercises (=%d)", label, c.MinExercisesPerDay, n),
			})
		}
		if c.MaxExercisesPerDay > 0 && n > c.MaxExercisesPerDay {
			ev.Issues = append(ev.Issues, Issue{
				Type:   IssueTooManyExercises,
				Detail: fmt.Sprintf("%s has more than %d exercises (=%d)", label, c.MaxExercisesPerDay, n),
			})
		}
	}

	sessionMinutes := p.SessionMinutes
	if sessionMinutes <= 0 {
		sessionMinutes = 60
	}
	for _, day := range draft.Days {
		if est := estimateMinutes(day); est > sessionMinutes {
			ev.Warnings = append(ev.Warnings, Warning{
				Type:   WarningDuration,
				Detail: fmt.Sprintf("%s estimated at %d minutes, exceeds %d", dayLabel(day), est, sessionMinutes),
			})
		}
	}

	if p.InternalGoal != nil {
		rank1ByDay := p.InternalGoal.Rank1MusclesByDay()
		if len(rank1ByDay) > 0 {
			for _, day := range draft.Days {
				token := mapPlanDayToToken(day, p.TrainingDays)
				if token == "" {
					continue
				}
				rank1 := rank1ByDay[token]
				if len(rank1) == 0 {
					continue
				}

				hits := 0
				for _, ex := range day.Exercises {
					pm := contract.CanonicalizeMuscle(ex.PrimaryMuscle)
					if pm == "" {
						pm = primaries[ex.ExerciseID]
					}
					if pm == "" {
						continue
					}
					if _, ok := rank1[pm]; ok {
						hits++
					}
				}

				if hits == 0 {
					muscles := make([]string, 0, len(rank1))
					for m := range rank1 {
						muscles = append(muscles, m)
					}
					sort.Strings(muscles)
					ev.Warnings = append(ev.Warnings, Warning{
						Type:   WarningRank1Coverage,
						Detail: fmt.Sprintf("%s has no exercise for a rank-1 muscle, expected one of: %s", token, strings.Join(muscles, ", ")),
					})
				}
			}
		}
	}

	return ev
}
