package contract

import (
	"fmt"
	"strings"
)

// normToken lowercases and trims a day or muscle token without alias resolution.
func normToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidatePriorityMuscles checks each entry against the taxonomy after alias
// canonicalization. A nil slice is valid (the field is optional).
func ValidatePriorityMuscles(muscles []string) []string {
	var rules []string
	for i, m := range muscles {
		if !IsValidMuscle(CanonicalizeMuscle(m)) {
			rules = append(rules, fmt.Sprintf(
				"priority_muscles[%d] is not a taxonomy muscle (=%q); allowed: %s",
				i, m, strings.Join(MuscleTaxonomy, ", ")))
		}
	}
	return rules
}

// ValidateTrainingDays checks day tokens for membership, uniqueness, and,
// when daysPerWeek > 0, exact length. A nil slice is valid.
func ValidateTrainingDays(days []string, daysPerWeek int) []string {
	if days == nil {
		return nil
	}

	var rules []string
	norm := make([]string, len(days))
	for i, d := range days {
		norm[i] = normToken(d)
	}

	if daysPerWeek > 0 && len(norm) != daysPerWeek {
		rules = append(rules, fmt.Sprintf("training_days must have exactly %d entries (=%d)", daysPerWeek, len(norm)))
	}

	seen := make(map[string]struct{}, len(norm))
	for _, d := range norm {
		if _, dup := seen[d]; dup {
			rules = append(rules, fmt.Sprintf("training_days contains duplicate day: %s", d))
		}
		seen[d] = struct{}{}
		if !IsValidTrainingDay(d) {
			rules = append(rules, fmt.Sprintf("training_days contains invalid day token: %q", d))
		}
	}
	return rules
}

// ValidateWeeklyFocus checks the per-day focus structure: valid unique day
// tokens, exact day count when daysPerWeek > 0, rank bounds [1,10], and
// per-day uniqueness of both rank and muscle.
func ValidateWeeklyFocus(focus []DayFocus, daysPerWeek int) []string {
	if focus == nil {
		return nil
	}

	var rules []string

	if daysPerWeek > 0 && len(focus) != daysPerWeek {
		rules = append(rules, fmt.Sprintf("weekly_focus_by_day must have exactly %d days (=%d)", daysPerWeek, len(focus)))
	}

	seenDays := make(map[string]struct{}, len(focus))
	for di, day := range focus {
		td := normToken(day.TrainingDay)
		if !IsValidTrainingDay(td) {
			rules = append(rules, fmt.Sprintf("weekly_focus_by_day[%d].training_day is invalid: %q", di, td))
		} else {
			if _, dup := seenDays[td]; dup {
				rules = append(rules, fmt.Sprintf("weekly_focus_by_day has duplicate training_day: %s", td))
			}
			seenDays[td] = struct{}{}
		}

		seenRank := make(map[int]struct{}, len(day.Focus))
		seenMuscle := make(map[string]struct{}, len(day.Focus))
		for fi, f := range day.Focus {
			m := CanonicalizeMuscle(f.Muscle)
			if !IsValidMuscle(m) {
				rules = append(rules, fmt.Sprintf("day[%d].focus[%d].muscle is invalid: %q", di, fi, f.Muscle))
			}
			if f.Rank < 1 || f.Rank > 10 {
				rules = append(rules, fmt.Sprintf("day[%d].focus[%d].rank is out of range: %d", di, fi, f.Rank))
			}
			if _, dup := seenRank[f.Rank]; dup {
				rules = append(rules, fmt.Sprintf("day[%d] has duplicate rank: %d", di, f.Rank))
			}
			seenRank[f.Rank] = struct{}{}
			if m != "" {
				if _, dup := seenMuscle[m]; dup {
					rules = append(rules, fmt.Sprintf("day[%d] has duplicate muscle: %s", di, m))
				}
				seenMuscle[m] = struct{}{}
			}
		}
	}
	return rules
}

// ValidateInternalGoal runs full contract validation over a structured
// Internal Goal: enumeration membership, day-count match against
// daysPerWeek, per-day uniqueness, and cross-consistency between
// training_days and weekly_focus_by_day. Returns the list of violated
// rules; an empty result means the goal is contract-valid.
func ValidateInternalGoal(g InternalGoal, daysPerWeek int) []string {
	var rules []string

	if !IsValidGoalStyle(g.GoalStyle) {
		rules = append(rules, fmt.Sprintf(
			"goal_style is invalid (=%q); allowed: %s", g.GoalStyle, strings.Join(GoalStyles, ", ")))
	}

	rules = append(rules, ValidatePriorityMuscles(g.PriorityMuscles)...)
	rules = append(rules, ValidateTrainingDays(g.TrainingDays, daysPerWeek)...)
	rules = append(rules, ValidateWeeklyFocus(g.WeeklyFocusByDay, daysPerWeek)...)

	// Cross-check: when both day lists are present and internally unique,
	// they must cover the same set of days. Skip the set comparison when
	// either list has duplicates to avoid piling on noisy errors.
	if len(g.TrainingDays) > 0 && len(g.WeeklyFocusByDay) > 0 {
		td := make(map[string]struct{}, len(g.TrainingDays))
		for _, d := range g.TrainingDays {
			td[normToken(d)] = struct{}{}
		}
		wfd := make(map[string]struct{}, len(g.WeeklyFocusByDay))
		for _, day := range g.WeeklyFocusByDay {
			wfd[normToken(day.TrainingDay)] = struct{}{}
		}

		if len(td) == len(g.TrainingDays) && len(wfd) == len(g.WeeklyFocusByDay) {
			if !sameDaySet(td, wfd) {
				rules = append(rules, "training_days and weekly_focus_by_day.training_day must cover the same set of days")
			}
		}
	}

	return rules
}

func sameDaySet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for d := range a {
		if _, ok := b[d]; !ok {
			return false
		}
	}
	return true
}
