package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/coachd/internal/contract"
)

// trainingDayAliases maps long-form and abbreviated day names to the
// canonical mon..sun tokens.
var trainingDayAliases = map[string]string{
	"mon": "mon", "monday": "mon",
	"tue": "tue", "tues": "tue", "tuesday": "tue",
	"wed": "wed", "weds": "wed", "wednesday": "wed",
	"thu": "thu", "thur": "thu", "thurs": "thu", "thursday": "thu",
	"fri": "fri", "friday": "fri",
	"sat": "sat", "saturday": "sat",
	"sun": "sun", "sunday": "sun",
}

// defaultTrainingDays returns the preset day split for a training frequency.
func defaultTrainingDays(daysPerWeek int) []string {
	presets := map[int][]string{
		1: {"mon"},
		2: {"mon", "thu"},
		3: {"mon", "wed", "fri"},
		4: {"mon", "tue", "thu", "fri"},
		5: {"mon", "tue", "wed", "thu", "fri"},
		6: {"mon", "tue", "wed", "thu", "fri", "sat"},
		7: {"mon", "tue", "wed", "thu", "fri", "sat", "sun"},
	}
	if days, ok := presets[daysPerWeek]; ok {
		return append([]string(nil), days...)
	}
	return []string{"mon", "wed", "fri"}
}

func canonicalizeTrainingDays(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, d := range raw {
		s := strings.ToLower(strings.TrimSpace(d))
		if s == "" {
			continue
		}
		if canon, ok := trainingDayAliases[s]; ok {
			s = canon
		}
		out = append(out, s)
	}
	return out
}

func validTrainingDays(days []string, daysPerWeek int) bool {
	if len(days) != daysPerWeek {
		return false
	}
	seen := make(map[string]struct{}, len(days))
	for _, d := range days {
		if !contract.IsValidTrainingDay(d) {
			return false
		}
		if _, dup := seen[d]; dup {
			return false
		}
		seen[d] = struct{}{}
	}
	return true
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NormalizeProfile maps a raw request to the canonical profile: legacy goal
// fallback, required-field checks, equipment CSV split, and training-day
// canonicalization. Invalid or missing training days fall back to the preset
// for the requested frequency; the result is always sorted in calendar order
// with length equal to days_per_week.
func NormalizeProfile(req Request) (Profile, error) {
	goalText := strings.TrimSpace(req.GoalText)
	if goalText == "" {
		goalText = strings.TrimSpace(req.Goal)
	}

	if req.DaysPerWeek == 0 {
		return Profile{}, fmt.Errorf("days_per_week is required")
	}
	if req.SessionMinutes == 0 {
		return Profile{}, fmt.Errorf("session_minutes is required")
	}

	days := canonicalizeTrainingDays(req.TrainingDays)
	if len(days) == 0 || !validTrainingDays(days, req.DaysPerWeek) {
		days = defaultTrainingDays(req.DaysPerWeek)
	}
	sort.Slice(days, func(i, j int) bool {
		a, _ := contract.DayIndex(days[i])
		b, _ := contract.DayIndex(days[j])
		return a < b
	})

	return Profile{
		UserID:         req.UserID,
		GoalText:       goalText,
		DaysPerWeek:    req.DaysPerWeek,
		SessionMinutes: req.SessionMinutes,
		TrainingDays:   days,

		Sex:    strings.ToLower(strings.TrimSpace(req.Sex)),
		Height: req.Height,
		Weight: req.Weight,
		Waist:  req.Waist,
		Hip:    req.Hip,
		Chest:  req.Chest,

		Experience: strings.ToLower(strings.TrimSpace(req.Experience)),
		Equipment:  splitCSV(req.Equipment),

		Seed: req.Seed,
	}, nil
}
