package contract

// MuscleRank is one focus entry inside a training day: a taxonomy muscle and
// its priority rank. Rank 1 is the primary focus of the day.
type MuscleRank struct {
	Muscle string `json:"muscle"`
	Rank   int    `json:"rank"`
}

// DayFocus is the ranked muscle focus for a single training day.
type DayFocus struct {
	TrainingDay string       `json:"training_day"`
	Focus       []MuscleRank `json:"focus"`
}

// InternalGoal is the structured interpretation of a user's free-text goal,
// produced by the intent resolver and validated against the contract before
// any other component consumes it.
type InternalGoal struct {
	GoalStyle        string     `json:"goal_style"`
	PriorityTargets  []string   `json:"priority_targets"`
	PriorityMuscles  []string   `json:"priority_muscles"`
	TrainingDays     []string   `json:"training_days"`
	WeeklyFocusByDay []DayFocus `json:"weekly_focus_by_day"`
	RiskNotes        []string   `json:"risk_notes"`
}

// Canonicalize returns a copy of the goal with every muscle and day token
// lowercased and legacy muscle aliases resolved. Defensive: the LLM is told
// not to emit "glutes" but may anyway.
func (g InternalGoal) Canonicalize() InternalGoal {
	out := g

	if g.PriorityMuscles != nil {
		out.PriorityMuscles = make([]string, len(g.PriorityMuscles))
		for i, m := range g.PriorityMuscles {
			out.PriorityMuscles[i] = CanonicalizeMuscle(m)
		}
	}

	if g.TrainingDays != nil {
		out.TrainingDays = make([]string, len(g.TrainingDays))
		for i, d := range g.TrainingDays {
			out.TrainingDays[i] = normToken(d)
		}
	}

	if g.WeeklyFocusByDay != nil {
		out.WeeklyFocusByDay = make([]DayFocus, len(g.WeeklyFocusByDay))
		for i, day := range g.WeeklyFocusByDay {
			nd := DayFocus{TrainingDay: normToken(day.TrainingDay)}
			if day.Focus != nil {
				nd.Focus = make([]MuscleRank, len(day.Focus))
				for j, f := range day.Focus {
					nd.Focus[j] = MuscleRank{Muscle: CanonicalizeMuscle(f.Muscle), Rank: f.Rank}
				}
			}
			out.WeeklyFocusByDay[i] = nd
		}
	}

	return out
}

// Rank1MusclesByDay maps each training day to the set of muscles ranked 1 on
// that day. Days without a rank-1 entry map to an empty set.
func (g InternalGoal) Rank1MusclesByDay() map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(g.WeeklyFocusByDay))
	for _, day := range g.WeeklyFocusByDay {
		td := normToken(day.TrainingDay)
		if td == "" {
			continue
		}
		rank1 := make(map[string]struct{})
		for _, f := range day.Focus {
			if f.Rank == 1 {
				if m := CanonicalizeMuscle(f.Muscle); m != "" {
					rank1[m] = struct{}{}
				}
			}
		}
		out[td] = rank1
	}
	return out
}
