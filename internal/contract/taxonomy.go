// Package contract defines the closed vocabularies shared by every planning
// component: the muscle taxonomy, the goal-style enumeration, and the
// training-day tokens. It also provides the canonicalization and validation
// rules applied to structured LLM output before anything downstream trusts it.
package contract

import "strings"

// MuscleTaxonomy is the closed set of muscle groups, in canonical order.
// "hips" is canonical; the legacy "glutes" token maps onto it.
var MuscleTaxonomy = []string{
	"chest",
	"shoulders",
	"triceps",
	"back",
	"biceps",
	"quadriceps",
	"hamstrings",
	"hips",
	"calves",
	"core",
}

// GoalStyles is the closed set of goal-style labels an Internal Goal may use.
var GoalStyles = []string{
	"health",
	"general_fitness",
	"fat_loss",
	"body_recomposition",
	"hypertrophy",
	"strength",
	"endurance",
	"athletic_performance",
	"mobility_flexibility",
	"posture_stability",
	"rehab_prevention",
	"mixed",
}

// TrainingDays lists the day tokens in calendar order.
var TrainingDays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// muscleAliases maps legacy muscle tokens onto their canonical replacements.
// Applied before strict taxonomy validation.
var muscleAliases = map[string]string{
	"glutes": "hips",
}

var (
	muscleSet    = toSet(MuscleTaxonomy)
	goalStyleSet = toSet(GoalStyles)
	daySet       = toSet(TrainingDays)

	dayOrder = func() map[string]int {
		m := make(map[string]int, len(TrainingDays))
		for i, d := range TrainingDays {
			m[d] = i
		}
		return m
	}()
)

func toSet(xs []string) map[string]struct{} {
	s := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		s[x] = struct{}{}
	}
	return s
}

// CanonicalizeMuscle lowercases, trims, and resolves legacy aliases.
// Canonicalizing an already-canonical token returns it unchanged.
func CanonicalizeMuscle(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if canon, ok := muscleAliases[m]; ok {
		return canon
	}
	return m
}

// IsValidMuscle reports whether m (after trimming/lowercasing) is a taxonomy member.
func IsValidMuscle(m string) bool {
	_, ok := muscleSet[strings.ToLower(strings.TrimSpace(m))]
	return ok
}

// IsValidGoalStyle reports whether s is a member of the goal-style enumeration.
func IsValidGoalStyle(s string) bool {
	_, ok := goalStyleSet[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// IsValidTrainingDay reports whether d is one of mon..sun.
func IsValidTrainingDay(d string) bool {
	_, ok := daySet[strings.ToLower(strings.TrimSpace(d))]
	return ok
}

// DayIndex returns the calendar position of a canonical day token (mon=0)
// and whether the token is recognized.
func DayIndex(d string) (int, bool) {
	i, ok := dayOrder[strings.ToLower(strings.TrimSpace(d))]
	return i, ok
}
