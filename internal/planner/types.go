// Package planner implements the workout-plan generation pipeline: profile
// normalization, constraint derivation, intent resolution, candidate
// retrieval, bounded generate/evaluate repair, and final enrichment.
package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/coachd/internal/audit"
	"github.com/fyrsmithlabs/coachd/internal/contract"
)

// Request is the raw inbound shape consumed by the profile normalizer.
// Equipment arrives as a comma-separated string; training days are optional
// and may use long-form names ("monday").
type Request struct {
	GoalText       string   `json:"goal_text"`
	Goal           string   `json:"goal"` // legacy field, used when goal_text is empty
	DaysPerWeek    int      `json:"days_per_week"`
	SessionMinutes int      `json:"session_minutes"`
	TrainingDays   []string `json:"training_days,omitempty"`

	Sex    string   `json:"sex,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Waist  *float64 `json:"waist,omitempty"`
	Hip    *float64 `json:"hip,omitempty"`
	Chest  *float64 `json:"chest,omitempty"`

	Experience string `json:"experience,omitempty"`
	Equipment  string `json:"equipment,omitempty"`

	Seed   *int64 `json:"seed,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// Profile is the canonical user intent produced by the normalizer. Immutable
// once produced; the intent stage replaces it with a copy carrying the
// Internal Goal attached.
type Profile struct {
	UserID         string   `json:"user_id,omitempty"`
	GoalText       string   `json:"goal_text"`
	DaysPerWeek    int      `json:"days_per_week"`
	SessionMinutes int      `json:"session_minutes"`
	TrainingDays   []string `json:"training_days"`

	Sex    string   `json:"sex,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Waist  *float64 `json:"waist,omitempty"`
	Hip    *float64 `json:"hip,omitempty"`
	Chest  *float64 `json:"chest,omitempty"`

	Experience string   `json:"experience,omitempty"`
	Equipment  []string `json:"equipment"`

	InternalGoal *contract.InternalGoal `json:"internal_goal,omitempty"`

	Seed *int64 `json:"seed,omitempty"`
}

// WithInternalGoal returns a copy of the profile with the goal attached.
func (p Profile) WithInternalGoal(g *contract.InternalGoal) Profile {
	p.InternalGoal = g
	return p
}

// Constraints are the derived session/plan limits. Created once per request,
// read-only afterward.
type Constraints struct {
	MaxRepairIterations   int `json:"max_repair_iterations"`
	MinExercisesPerDay    int `json:"min_exercises_per_day"`
	MaxExercisesPerDay    int `json:"max_exercises_per_day"`
	MaxRepeatSameExercise int `json:"max_repeat_same_exercise_per_week"`
}

// Candidate is one retrievable exercise in the pool. The first muscle-group
// entry is the primary muscle by convention.
type Candidate struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	MuscleGroups []string `json:"muscle_groups"`
	Equipment    []string `json:"equipment,omitempty"`
	Level        string   `json:"level,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	ImageFile    string   `json:"image_file,omitempty"`

	Score       float64 `json:"score"`
	RerankScore float64 `json:"rerank_score,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

// PrimaryMuscle returns the canonical first muscle group, or "".
func (c Candidate) PrimaryMuscle() string {
	if len(c.MuscleGroups) == 0 {
		return ""
	}
	return contract.CanonicalizeMuscle(c.MuscleGroups[0])
}

// ExerciseItem is one planned exercise inside a day.
type ExerciseItem struct {
	ExerciseID    int    `json:"exercise_id"`
	Sets          int    `json:"sets"`
	Reps          string `json:"reps"`
	RestSec       int    `json:"rest_sec"`
	Notes         string `json:"notes,omitempty"`
	PrimaryMuscle string `json:"primary_muscle,omitempty"`
}

// DayPlan is one training session in a draft plan. Day carries whatever
// label generation produced ("mon", "Day 1", ...); TrainingDay, when set,
// is the explicit mon..sun token.
type DayPlan struct {
	Day         string         `json:"day"`
	TrainingDay string         `json:"training_day,omitempty"`
	Exercises   []ExerciseItem `json:"exercises"`
}

// Plan is a draft weekly schedule as produced by structured generation.
type Plan struct {
	Goal           string    `json:"goal"`
	DaysPerWeek    int       `json:"days_per_week"`
	SessionMinutes int       `json:"session_minutes"`
	Split          string    `json:"split"`
	Days           []DayPlan `json:"days"`
}

// FinalExercise is a plan exercise joined with candidate metadata.
type FinalExercise struct {
	ExerciseItem
	Title        string   `json:"title"`
	MuscleGroups []string `json:"muscle_groups"`
	ImageURL     string   `json:"image_url,omitempty"`
	ImageFile    string   `json:"image_file,omitempty"`
}

// FinalDay is one enriched training session.
type FinalDay struct {
	Day         string          `json:"day"`
	TrainingDay string          `json:"training_day,omitempty"`
	Exercises   []FinalExercise `json:"exercises"`
}

// FinalPlan is the metadata-complete plan returned to the caller.
type FinalPlan struct {
	Goal           string     `json:"goal"`
	DaysPerWeek    int        `json:"days_per_week"`
	SessionMinutes int        `json:"session_minutes"`
	Split          string     `json:"split"`
	Days           []FinalDay `json:"days"`
}

// IssueType tags a blocking evaluation defect.
type IssueType string

const (
	IssueInvalidExerciseID IssueType = "invalid_exercise_id"
	IssueTooFewExercises   IssueType = "too_few_exercises"
	IssueTooManyExercises  IssueType = "too_many_exercises"
)

// Issue is a blocking defect found during evaluation; issues drive the
// repair loop.
type Issue struct {
	Type   IssueType `json:"type"`
	Detail string    `json:"detail"`
}

// WarningType tags a non-blocking observation.
type WarningType string

const (
	WarningDuration       WarningType = "duration_exceeded"
	WarningRank1Coverage  WarningType = "rank1_coverage"
	WarningIntentFailed   WarningType = "intent_failed"
	WarningRerankDegraded WarningType = "rerank_degraded"
)

// Warning is a non-blocking observation; warnings never trigger a retry.
type Warning struct {
	Type   WarningType `json:"type"`
	Detail string      `json:"detail"`
}

// Evaluation is the evaluator's verdict on one draft.
type Evaluation struct {
	Issues   []Issue   `json:"issues"`
	Warnings []Warning `json:"warnings"`
}

// Result is the outbound shape for one planning request.
type Result struct {
	RequestID    string                 `json:"request_id"`
	Profile      Profile                `json:"profile"`
	Constraints  Constraints            `json:"constraints"`
	InternalGoal *contract.InternalGoal `json:"internal_goal,omitempty"`
	Candidates   []Candidate            `json:"candidates,omitempty"`
	DraftPlan    *Plan                  `json:"draft_plan,omitempty"`
	FinalPlan    *FinalPlan             `json:"final_plan,omitempty"`
	Issues       []Issue                `json:"issues"`
	Warnings     []Warning              `json:"warnings"`
	Error        string                 `json:"error,omitempty"`
	Audit        audit.Trail            `json:"audit"`
}

// GuardError is a hard pre-generation rejection: structural input violations
// detected before any model call. It is a value, not a panic path; the
// orchestrator treats it as the terminal draft.
type GuardError struct {
	Reasons        []string    `json:"reasons"`
	CandidateCount int         `json:"candidate_count"`
	Profile        Profile     `json:"profile"`
	Constraints    Constraints `json:"constraints"`
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("plan generation guard failed: %s", strings.Join(e.Reasons, "; "))
}

// GenerationError wraps a structured-generation collaborator failure.
type GenerationError struct {
	Stage string // "intent" or "plan"
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IntentFailure records a failed intent resolution: either the collaborator
// errored or its output violated the contract. It does not abort the
// pipeline; retrieval falls back to the full taxonomy.
type IntentFailure struct {
	Message string   `json:"message"`
	Rules   []string `json:"rules,omitempty"`
}

// Generator is the structured-generation collaborator. Implementations must
// return schema-conforming values or an error; callers convert errors into
// typed failure results.
type Generator interface {
	GenerateIntent(ctx context.Context, prompt string) (contract.InternalGoal, error)
	GeneratePlan(ctx context.Context, prompt string) (Plan, error)
}
