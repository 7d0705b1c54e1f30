package planner

// EnrichPlan joins an accepted draft with candidate metadata by id lookup.
// Exercises whose id is absent from the pool pass through with empty
// metadata rather than being dropped.
func EnrichPlan(draft Plan, candidates []Candidate) FinalPlan {
	lookup := make(map[int]Candidate, len(candidates))
	for _, c := range candidates {
		lookup[c.ID] = c
	}

	days := make([]FinalDay, 0, len(draft.Days))
	for _, day := range draft.Days {
		exercises := make([]FinalExercise, 0, len(day.Exercises))
		for _, ex := range day.Exercises {
			meta := lookup[ex.ExerciseID]
			exercises = append(exercises, FinalExercise{
				ExerciseItem: ex,
				Title:        meta.Title,
				MuscleGroups: meta.MuscleGroups,
				ImageURL:     meta.ImageURL,
				ImageFile:    meta.ImageFile,
			})
		}
		days = append(days, FinalDay{
			Day:         day.Day,
			TrainingDay: day.TrainingDay,
			Exercises:   exercises,
		})
	}

	return FinalPlan{
		Goal:           draft.Goal,
		DaysPerWeek:    draft.DaysPerWeek,
		SessionMinutes: draft.SessionMinutes,
		Split:          draft.Split,
		Days:           days,
	}
}
