package planner

// Default session/plan limits.
const (
	defaultMaxRepairIterations   = 2
	defaultMaxExercisesPerDay    = 6
	defaultMaxRepeatSameExercise = 1
)

// BuildConstraints derives the per-request plan limits. The limits are fixed
// in the reference configuration; the profile parameter keeps the door open
// for experience-dependent budgets.
func BuildConstraints(_ Profile) Constraints {
	return Constraints{
		MaxRepairIterations:   defaultMaxRepairIterations,
		MaxExercisesPerDay:    defaultMaxExercisesPerDay,
		MaxRepeatSameExercise: defaultMaxRepeatSameExercise,
	}
}
