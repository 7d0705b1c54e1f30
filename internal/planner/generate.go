package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/cache"
	"github.com/fyrsmithlabs/coachd/internal/contract"
)

const (
	// minCandidates is the pool floor below which generation is refused.
	minCandidates = 20

	// promptCandidateLimit caps the candidate list rendered into the prompt.
	promptCandidateLimit = 45
)

// guardGeneration validates structural input bounds before any model call.
// A non-nil return is the terminal "draft" for this attempt.
func guardGeneration(p Profile, c Constraints, candidates []Candidate) *GuardError {
	var reasons []string

	if p.DaysPerWeek < 1 || p.DaysPerWeek > 7 {
		reasons = append(reasons, fmt.Sprintf("days_per_week out of range (=%d), valid range is 1-7", p.DaysPerWeek))
	}
	if p.SessionMinutes < 10 || p.SessionMinutes > 240 {
		reasons = append(reasons, fmt.Sprintf("session_minutes out of range (=%d), valid range is 10-240", p.SessionMinutes))
	}

	if p.InternalGoal != nil {
		for _, rule := range contract.ValidateInternalGoal(*p.InternalGoal, p.DaysPerWeek) {
			reasons = append(reasons, "internal_goal invalid: "+rule)
		}
	}

	if c.MaxExercisesPerDay < 1 || c.MaxExercisesPerDay > 20 {
		reasons = append(reasons, fmt.Sprintf("max_exercises_per_day out of range (=%d), valid range is 1-20", c.MaxExercisesPerDay))
	}

	if len(candidates) < minCandidates {
		reasons = append(reasons, fmt.Sprintf(
			"not enough candidate exercises to build a plan (found %d, need at least %d)",
			len(candidates), minCandidates))
	}

	if len(reasons) == 0 {
		return nil
	}
	return &GuardError{
		Reasons:        reasons,
		CandidateCount: len(candidates),
		Profile:        p,
		Constraints:    c,
	}
}

func formatCandidateLines(candidates []Candidate, max int) string {
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		parts := []string{fmt.Sprintf("id=%d", c.ID), c.Title}
		if len(c.MuscleGroups) > 0 {
			parts = append(parts, "muscles="+strings.Join(c.MuscleGroups, ","))
		}
		if len(c.Equipment) > 0 {
			parts = append(parts, "equip="+strings.Join(c.Equipment, ","))
		}
		if c.Level != "" {
			parts = append(parts, "level="+c.Level)
		}
		lines = append(lines, strings.Join(parts, " | "))
	}
	return strings.Join(lines, "\n")
}

// buildPlanPrompt renders the generation prompt: profile, constraints, the
// capped candidate list, and on repair iterations the prior draft plus the
// issues it must resolve.
func buildPlanPrompt(p Profile, c Constraints, candidates []Candidate, issues []Issue, prev *Plan) string {
	profileJSON, _ := json.Marshal(p)
	constraintsJSON, _ := json.Marshal(c)

	var b strings.Builder
	b.WriteString("Task: produce a weekly workout schedule as JSON matching the schema, using only listed exercise_id values.\n\n")

	b.WriteString("Input profile:\n")
	b.Write(profileJSON)
	b.WriteString("\n\n")

	b.WriteString("Constraints:\n")
	b.Write(constraintsJSON)
	b.WriteString("\n\n")

	b.WriteString("Candidate exercises (ids outside this list are forbidden):\n")
	b.WriteString(formatCandidateLines(candidates, promptCandidateLimit))

	if prev != nil {
		prevJSON, _ := json.Marshal(prev)
		b.WriteString("\n\nPrevious draft (to repair):\n")
		b.Write(prevJSON)
	}
	if len(issues) > 0 {
		issuesJSON, _ := json.Marshal(issues)
		b.WriteString("\n\nIssues to resolve (mandatory):\n")
		b.Write(issuesJSON)
	}

	b.WriteString("\n\nOutput requirements:\n")
	b.WriteString("- Return only valid JSON, no explanation.\n")
	b.WriteString("- Never use an id outside the candidate list.\n")
	b.WriteString("- At most max_exercises_per_day exercises per session.\n")
	if len(p.TrainingDays) > 0 {
		fmt.Fprintf(&b, "- MANDATORY: days[i].day or days[i].training_day must follow training_days in order: %s.\n",
			strings.Join(p.TrainingDays, ", "))
		b.WriteString("  - Use mon..sun tokens only.\n")
	}
	b.WriteString("- Each exercise should carry a primary_muscle from the taxonomy.\n")
	if c.MinExercisesPerDay > 0 {
		b.WriteString("- At least min_exercises_per_day exercises per session.\n")
	}
	return b.String()
}

// generatePlan runs the guard, builds the prompt, and invokes structured
// generation with prompt-hash caching. Identical repair states reuse cached
// drafts deterministically within the TTL window.
func (s *Service) generatePlan(ctx context.Context, p Profile, c Constraints, candidates []Candidate, issues []Issue, prev *Plan) (*Plan, error) {
	if guard := guardGeneration(p, c, candidates); guard != nil {
		return nil, guard
	}

	prompt := buildPlanPrompt(p, c, candidates, issues, prev)
	hash := promptHash(prompt)

	if cached, ok := s.cache.Get(cache.NamespacePlanPrompt, hash); ok {
		if plan, ok := cached.(Plan); ok {
			s.logger.Debug("plan cache hit", zap.String("hash", hash[:12]))
			return &plan, nil
		}
	}

	plan, err := s.generator.GeneratePlan(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{Stage: "plan", Err: err}
	}

	s.cache.Set(cache.NamespacePlanPrompt, hash, plan, s.planTTL)
	return &plan, nil
}
