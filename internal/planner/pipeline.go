package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/audit"
	"github.com/fyrsmithlabs/coachd/internal/cache"
	"github.com/fyrsmithlabs/coachd/internal/exercise"
	"github.com/fyrsmithlabs/coachd/internal/rerank"
)

// Service orchestrates the planning pipeline: profile normalization,
// constraint derivation, intent resolution, candidate retrieval, the
// bounded generate/evaluate repair loop, and final enrichment. Stages run
// strictly sequentially; one Service handles concurrent requests because
// all per-request state is local to Run.
type Service struct {
	generator Generator
	retriever exercise.Retriever
	reranker  rerank.Reranker
	cache     *cache.Store
	logger    *zap.Logger
	metrics   *Metrics

	intentTTL    time.Duration
	planTTL      time.Duration
	retrievalTTL time.Duration
}

// Options configures a Service. Generator and Retriever are required;
// Reranker is optional and its absence degrades retrieval to score
// ordering. Zero TTLs fall back to the cache default.
type Options struct {
	Generator Generator
	Retriever exercise.Retriever
	Reranker  rerank.Reranker
	Cache     *cache.Store
	Logger    *zap.Logger
	Metrics   *Metrics

	IntentTTL    time.Duration
	PlanTTL      time.Duration
	RetrievalTTL time.Duration
}

// NewService creates a planning service.
func NewService(opts Options) (*Service, error) {
	if opts.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if opts.Retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if opts.Cache == nil {
		opts.Cache = cache.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}

	return &Service{
		generator:    opts.Generator,
		retriever:    opts.Retriever,
		reranker:     opts.Reranker,
		cache:        opts.Cache,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		intentTTL:    opts.IntentTTL,
		planTTL:      opts.PlanTTL,
		retrievalTTL: opts.RetrievalTTL,
	}, nil
}

// routeDecision is the three-way verdict after one evaluation pass.
type routeDecision int

const (
	routeStopClean routeDecision = iota
	routeStopExhausted
	routeContinue
)

// routeAfterEvaluate decides whether the repair loop stops or continues.
// Pure over (issue count, iteration, max iterations) so the termination
// rule is testable in isolation.
func routeAfterEvaluate(issueCount, iteration, maxIter int) routeDecision {
	if issueCount == 0 {
		return routeStopClean
	}
	if iteration >= maxIter {
		return routeStopExhausted
	}
	return routeContinue
}

func (s *Service) observeStage(stage string, start time.Time) {
	s.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Run executes the full pipeline for one request. It always returns a
// Result; failures are carried in Result.Error and the audit trail rather
// than an error return, so callers get the partial state and history even
// when no plan could be produced.
func (s *Service) Run(ctx context.Context, req Request) Result {
	requestID := uuid.NewString()
	logger := s.logger.With(zap.String("request_id", requestID))

	result := Result{RequestID: requestID}
	trail := audit.NewTrail().AppendEvent("pipeline_start", map[string]any{
		"goal_text": req.GoalText,
	})

	// Profile.
	start := time.Now()
	profile, err := NormalizeProfile(req)
	if err != nil {
		result.Error = err.Error()
		result.Audit = trail.AppendEvent("profile_failed", map[string]any{"error": err.Error()})
		s.metrics.PlansTotal.WithLabelValues("error").Inc()
		logger.Warn("profile normalization failed", zap.Error(err))
		return result
	}
	trail = trail.AppendEvent("profile_done", map[string]any{
		"days_per_week":   profile.DaysPerWeek,
		"session_minutes": profile.SessionMinutes,
		"training_days":   profile.TrainingDays,
	})
	s.observeStage("profile", start)

	// Constraints.
	constraints := BuildConstraints(profile)
	trail = trail.AppendEvent("constraints_done", map[string]any{
		"max_repair_iterations": constraints.MaxRepairIterations,
		"max_exercises_per_day": constraints.MaxExercisesPerDay,
	})

	// Intent.
	start = time.Now()
	var staticWarnings []Warning
	intent := s.resolveIntent(ctx, profile)
	if intent.Failure != nil {
		trail = trail.AppendEvent("intent_failed", map[string]any{
			"message": intent.Failure.Message,
			"rules":   intent.Failure.Rules,
		})
		staticWarnings = append(staticWarnings, Warning{
			Type:   WarningIntentFailed,
			Detail: intent.Failure.Message,
		})
		s.metrics.IntentFailures.Inc()
		logger.Warn("intent resolution failed", zap.String("message", intent.Failure.Message))
	} else if intent.Goal != nil {
		profile = profile.WithInternalGoal(intent.Goal)
		trail = trail.AppendEvent("intent_done", map[string]any{
			"goal_style":       intent.Goal.GoalStyle,
			"priority_muscles": intent.Goal.PriorityMuscles,
		})
	}
	s.observeStage("intent", start)

	// Retrieval.
	start = time.Now()
	candidates, retrievalWarnings := s.buildCandidatePool(ctx, profile, constraints)
	staticWarnings = append(staticWarnings, retrievalWarnings...)
	trail = trail.AppendEvent("retrieval_done", map[string]any{
		"candidate_count": len(candidates),
	})
	s.metrics.PoolSize.Observe(float64(len(candidates)))
	s.observeStage("retrieval", start)

	result.Profile = profile
	result.Constraints = constraints
	result.InternalGoal = profile.InternalGoal
	result.Candidates = candidates

	// Bounded repair loop.
	var (
		draft     *Plan
		issues    []Issue
		evalWarns []Warning
		iteration int
		maxIter   = constraints.MaxRepairIterations
	)

	for {
		trail = trail.AppendIteration(iteration)

		start = time.Now()
		var prev *Plan
		var prevIssues []Issue
		if iteration > 0 {
			prev = draft
			prevIssues = issues
		}

		next, err := s.generatePlan(ctx, profile, constraints, candidates, prevIssues, prev)
		s.observeStage("plan", start)
		if err != nil {
			var guard *GuardError
			if errors.As(err, &guard) {
				trail = trail.AppendEvent("guard_failed", map[string]any{
					"reasons":         guard.Reasons,
					"candidate_count": guard.CandidateCount,
				})
				s.metrics.GuardFailures.Inc()
				s.metrics.PlansTotal.WithLabelValues("guard_failed").Inc()
				logger.Warn("generation guard failed", zap.Strings("reasons", guard.Reasons))
			} else {
				trail = trail.AppendEvent("draft_failed", map[string]any{
					"iteration": iteration,
					"error":     err.Error(),
				})
				s.metrics.PlansTotal.WithLabelValues("error").Inc()
				logger.Error("plan generation failed", zap.Error(err))
			}
			result.Error = err.Error()
			result.Warnings = staticWarnings
			result.Audit = trail.AppendEvent("pipeline_end", map[string]any{
				"issues":   0,
				"warnings": len(staticWarnings),
			})
			return result
		}

		draft = next
		trail = trail.AppendEvent("draft_done", map[string]any{"iteration": iteration})

		start = time.Now()
		eval := EvaluatePlan(*draft, candidates, profile, constraints)
		issues = eval.Issues
		evalWarns = eval.Warnings
		trail = trail.AppendEvent("evaluate_done", map[string]any{
			"iteration": iteration,
			"issues":    len(issues),
			"warnings":  len(evalWarns),
		})
		s.observeStage("evaluate", start)

		decision := routeAfterEvaluate(len(issues), iteration, maxIter)
		if decision == routeContinue {
			iteration++
			continue
		}

		status := "clean"
		if decision == routeStopExhausted {
			status = "exhausted"
			logger.Warn("repair budget exhausted, accepting last draft",
				zap.Int("iterations", iteration),
				zap.Int("open_issues", len(issues)),
			)
		}
		s.metrics.PlansTotal.WithLabelValues(status).Inc()
		break
	}
	s.metrics.RepairIterations.Observe(float64(iteration))

	// Enrich.
	final := EnrichPlan(*draft, candidates)
	warnings := append(staticWarnings, evalWarns...)

	result.DraftPlan = draft
	result.FinalPlan = &final
	result.Issues = issues
	result.Warnings = warnings
	result.Audit = trail.AppendEvent("pipeline_end", map[string]any{
		"issues":   len(issues),
		"warnings": len(warnings),
	})

	logger.Info("planning complete",
		zap.Int("iterations", iteration),
		zap.Int("issues", len(issues)),
		zap.Int("warnings", len(warnings)),
		zap.Int("candidates", len(candidates)),
	)
	return result
}
