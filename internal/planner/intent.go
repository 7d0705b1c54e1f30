package planner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/cache"
	"github.com/fyrsmithlabs/coachd/internal/contract"
)

// intentOutcome is the cached result of one intent resolution: either a
// validated goal or a recorded failure. Failures are cached too so a
// persistently bad prompt does not hammer the backend within the TTL window.
type intentOutcome struct {
	Goal    *contract.InternalGoal
	Failure *IntentFailure
}

func promptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// buildIntentPrompt renders the deterministic intent prompt: the profile,
// the three closed enumerations, the output schema, and the hard structural
// constraints the goal must satisfy.
func buildIntentPrompt(p Profile) string {
	profileJSON, _ := json.Marshal(p)

	var b strings.Builder
	b.WriteString("Task: analyze goal_text and normalize it into an Internal Goal JSON matching the schema.\n\n")

	b.WriteString("Input profile:\n")
	b.Write(profileJSON)
	b.WriteString("\n\n")

	b.WriteString("Valid muscle taxonomy (MUST use exactly):\n")
	b.WriteString(strings.Join(contract.MuscleTaxonomy, ", "))
	b.WriteString("\n\n")

	b.WriteString("Valid goal_style enum:\n")
	b.WriteString(strings.Join(contract.GoalStyles, ", "))
	b.WriteString("\n\n")

	b.WriteString("Valid training_days enum:\n")
	b.WriteString(strings.Join(contract.TrainingDays, ", "))
	b.WriteString("\n\n")

	b.WriteString("Required output JSON fields:\n")
	b.WriteString("- goal_style: one enum value\n")
	b.WriteString("- priority_targets: list of strings (e.g. abs, hips, upper chest, v taper)\n")
	b.WriteString("- priority_muscles: list of taxonomy muscles\n")
	fmt.Fprintf(&b, "- training_days: list of exactly %d unique mon..sun tokens\n", p.DaysPerWeek)
	fmt.Fprintf(&b, "- weekly_focus_by_day: list of exactly %d objects {training_day, focus}\n", p.DaysPerWeek)
	b.WriteString("  - focus: list of {muscle, rank} objects (rank 1 is the highest priority)\n")
	b.WriteString("- risk_notes: list of strings\n\n")

	b.WriteString("Hard constraints (mandatory):\n")
	b.WriteString("1) Each training_day has exactly one rank=1 entry in focus.\n")
	b.WriteString("2) If a session covers more than 2 large muscle groups, no large muscle group may be rank 1 (rank 2 minimum).\n")
	b.WriteString("3) Two adjacent training_days must not share a large muscle group.\n")
	b.WriteString("4) Muscle groups per session are capped by days_per_week:\n")
	b.WriteString("   - 1: full body\n")
	b.WriteString("   - 2: at most 5 muscle groups per session\n")
	b.WriteString("   - 3: at most 4 muscle groups per session\n")
	b.WriteString("   - 4: at most 3 muscle groups per session\n")
	b.WriteString("   - 5-6: at most 2 muscle groups per session\n")
	b.WriteString("   - 7: at most 2 muscle groups per session\n")
	b.WriteString("5) Unless experience is advanced, no large muscle group appears 3+ times per week.\n")
	b.WriteString("6) Never use 'glutes'. Use 'hips' instead.\n\n")

	b.WriteString("Self-check before returning JSON (fix silently on failure):\n")
	b.WriteString("- training_days unique and complete\n")
	b.WriteString("- weekly_focus_by_day.training_day unique and matching the training_days set\n")
	b.WriteString("- exactly one rank=1 per day\n")
	b.WriteString("- no duplicate muscle within a day\n")
	b.WriteString("- no duplicate rank within a day\n\n")

	b.WriteString("Allocation hints:\n")
	b.WriteString("- Primary targets at rank 1, secondary targets at rank 2-3\n")
	b.WriteString("- 2-4 muscle groups per day depending on session length\n")
	fmt.Fprintf(&b, "- session_minutes: %d\n\n", p.SessionMinutes)
	b.WriteString("Return only valid JSON, no explanation.")
	return b.String()
}

// resolveIntent turns the profile's free-text goal into a validated Internal
// Goal. A profile that already carries a goal is a no-op. Failures never
// abort the pipeline; the caller records a warning and retrieval falls back
// to the full taxonomy.
func (s *Service) resolveIntent(ctx context.Context, p Profile) intentOutcome {
	if p.InternalGoal != nil {
		return intentOutcome{Goal: p.InternalGoal}
	}

	prompt := buildIntentPrompt(p)
	hash := promptHash(prompt)

	if cached, ok := s.cache.Get(cache.NamespaceIntentPrompt, hash); ok {
		if out, ok := cached.(intentOutcome); ok {
			s.logger.Debug("intent cache hit", zap.String("hash", hash[:12]))
			return out
		}
	}

	goal, err := s.generator.GenerateIntent(ctx, prompt)
	if err != nil {
		out := intentOutcome{Failure: &IntentFailure{
			Message: fmt.Sprintf("intent generation failed: %v", err),
		}}
		s.cache.Set(cache.NamespaceIntentPrompt, hash, out, s.intentTTL)
		return out
	}

	goal = goal.Canonicalize()

	if rules := contract.ValidateInternalGoal(goal, p.DaysPerWeek); len(rules) > 0 {
		out := intentOutcome{Failure: &IntentFailure{
			Message: "generated internal goal violates the contract",
			Rules:   rules,
		}}
		s.cache.Set(cache.NamespaceIntentPrompt, hash, out, s.intentTTL)
		return out
	}

	out := intentOutcome{Goal: &goal}
	s.cache.Set(cache.NamespaceIntentPrompt, hash, out, s.intentTTL)
	return out
}
