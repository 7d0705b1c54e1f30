package planner

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/cache"
	"github.com/fyrsmithlabs/coachd/internal/contract"
	"github.com/fyrsmithlabs/coachd/internal/exercise"
	"github.com/fyrsmithlabs/coachd/internal/rerank"
)

// Retrieval pool tuning.
const (
	// defaultPoolSize caps the candidate pool handed to generation.
	defaultPoolSize = 55

	// poolFloor triggers the broad fallback query when the per-muscle
	// passes produce too small a pool.
	poolFloor = 30

	// rerankThreshold is the minimum pool size worth reranking.
	rerankThreshold = 5

	// rerankTopN caps the pool size after rerank.
	rerankTopN = 30
)

// distanceToScore converts a cosine distance (smaller is better) into a
// relevance score (larger is better). d=0 -> 1.0, d=1 -> 0.5.
func distanceToScore(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1.0 / (1.0 + distance)
}

// retrievalFingerprint builds the cache key for one profile's candidate
// pool. Seed participates so explicitly varied requests bypass the cache.
func retrievalFingerprint(p Profile, goalStyle, goalText string, muscles []string) string {
	user := p.UserID
	if user == "" {
		user = "anon"
	}

	sorted := append([]string(nil), muscles...)
	sort.Strings(sorted)

	seed := ""
	if p.Seed != nil {
		seed = strconv.FormatInt(*p.Seed, 10)
	}

	return strings.Join([]string{
		"retrieval_v1",
		user,
		goalStyle,
		goalText,
		strconv.Itoa(p.DaysPerWeek),
		strconv.Itoa(p.SessionMinutes),
		strings.Join(sorted, ","),
		seed,
	}, "|")
}

func toCandidate(ex exercise.Exercise, reason string) Candidate {
	score := 0.9
	if ex.Distance != nil {
		score = distanceToScore(*ex.Distance)
	}
	return Candidate{
		ID:           ex.ID,
		Title:        ex.Title,
		MuscleGroups: ex.MuscleGroups,
		Equipment:    ex.Equipment,
		Level:        ex.Level,
		ImageURL:     ex.ImageURL,
		ImageFile:    ex.ImageFile,
		Score:        score,
		Reason:       reason,
	}
}

// buildCandidatePool assembles the deduplicated exercise pool for one
// request: an evenly divided per-muscle share with a muscle-only fallback,
// a broad fallback when the pool stays under the floor, an optional rerank
// pass, and truncation to the fixed cap. The pool is cached by profile
// fingerprint.
func (s *Service) buildCandidatePool(ctx context.Context, p Profile, _ Constraints) ([]Candidate, []Warning) {
	goalText := strings.ToLower(strings.TrimSpace(p.GoalText))
	goalStyle := ""
	if p.InternalGoal != nil {
		goalStyle = strings.ToLower(strings.TrimSpace(p.InternalGoal.GoalStyle))
	}

	var muscles []string
	if p.InternalGoal != nil {
		for _, m := range p.InternalGoal.PriorityMuscles {
			if canon := contract.CanonicalizeMuscle(m); contract.IsValidMuscle(canon) {
				muscles = append(muscles, canon)
			}
		}
	}
	if len(muscles) == 0 {
		muscles = append([]string(nil), contract.MuscleTaxonomy...)
	}

	queryBase := goalStyle
	if queryBase == "" {
		queryBase = goalText
	}
	if queryBase == "" {
		queryBase = "general_fitness"
	}

	key := retrievalFingerprint(p, goalStyle, goalText, muscles)
	if cached, ok := s.cache.Get(cache.NamespaceRetrievalCands, key); ok {
		if pool, ok := cached.([]Candidate); ok {
			s.logger.Debug("retrieval cache hit", zap.Int("candidates", len(pool)))
			return pool, nil
		}
	}

	var (
		candidates []Candidate
		warnings   []Warning
		seen       = make(map[int]struct{})
	)

	perMuscle := defaultPoolSize / len(muscles)
	if perMuscle < 10 {
		perMuscle = 10
	}

	for _, m := range muscles {
		results, err := s.retriever.Search(ctx, exercise.SearchRequest{
			Query:    fmt.Sprintf("%s exercise for %s", queryBase, m),
			Muscles:  []string{m},
			Limit:    perMuscle,
			Semantic: true,
		})
		if err != nil {
			s.logger.Warn("muscle retrieval failed", zap.String("muscle", m), zap.Error(err))
			results = nil
		}

		// Too few hits for this muscle: top up with a plain muscle-only
		// query, merging new ids behind the ranked ones.
		floor := perMuscle / 3
		if floor < 3 {
			floor = 3
		}
		if len(results) < floor {
			more, err := s.retriever.Search(ctx, exercise.SearchRequest{
				Muscles:  []string{m},
				Limit:    perMuscle,
				Semantic: false,
			})
			if err == nil {
				inResults := make(map[int]struct{}, len(results))
				for _, ex := range results {
					inResults[ex.ID] = struct{}{}
				}
				for _, ex := range more {
					if len(results) >= perMuscle {
						break
					}
					if _, ok := inResults[ex.ID]; ok {
						continue
					}
					results = append(results, ex)
				}
			}
		}

		for _, ex := range results {
			if _, dup := seen[ex.ID]; dup {
				continue
			}
			seen[ex.ID] = struct{}{}

			tag := "muscle:" + m
			if ex.Distance != nil {
				tag = "semantic:" + m
			}
			candidates = append(candidates, toCandidate(ex, tag))
		}
	}

	if len(candidates) < poolFloor {
		results, err := s.retriever.Search(ctx, exercise.SearchRequest{
			Query:    queryBase + " workout exercise",
			Limit:    50,
			Semantic: true,
		})
		if err != nil {
			results = nil
		}
		if len(results) < 10 {
			broad, err := s.retriever.Search(ctx, exercise.SearchRequest{Limit: 50})
			if err == nil {
				results = broad
			}
		}

		for _, ex := range results {
			if _, dup := seen[ex.ID]; dup {
				continue
			}
			seen[ex.ID] = struct{}{}

			tag := "fallback_pool"
			score := 0.5
			if ex.Distance != nil {
				tag = "semantic_fallback_pool"
				score = distanceToScore(*ex.Distance)
			}
			c := toCandidate(ex, tag)
			c.Score = score
			candidates = append(candidates, c)
		}
	}

	if s.reranker != nil && len(candidates) > rerankThreshold {
		reranked, err := s.rerankCandidates(ctx, queryBase, muscles, candidates)
		if err != nil {
			s.logger.Warn("rerank failed, using score ordering", zap.Error(err))
			warnings = append(warnings, Warning{
				Type:   WarningRerankDegraded,
				Detail: fmt.Sprintf("rerank unavailable: %v", err),
			})
			sort.SliceStable(candidates, func(i, j int) bool {
				return candidates[i].Score > candidates[j].Score
			})
		} else {
			candidates = reranked
		}
	}

	if len(candidates) > defaultPoolSize {
		candidates = candidates[:defaultPoolSize]
	}

	s.cache.Set(cache.NamespaceRetrievalCands, key, candidates, s.retrievalTTL)
	return candidates, warnings
}

// rerankCandidates reorders the pool by relevance to a synthesized query:
// the goal context plus up to three priority muscles.
func (s *Service) rerankCandidates(ctx context.Context, queryBase string, muscles []string, candidates []Candidate) ([]Candidate, error) {
	queryParts := []string{queryBase}
	if queryBase == "" {
		queryParts = []string{"workout"}
	}
	if len(muscles) > 3 {
		muscles = muscles[:3]
	}
	queryParts = append(queryParts, muscles...)
	query := strings.Join(queryParts, " ")

	docs := make([]rerank.Document, len(candidates))
	byID := make(map[int]Candidate, len(candidates))
	for i, c := range candidates {
		docs[i] = rerank.Document{
			ID:      c.ID,
			Content: c.Title + " " + strings.Join(c.MuscleGroups, " "),
			Score:   c.Score,
		}
		byID[c.ID] = c
	}

	scored, err := s.reranker.Rerank(ctx, query, docs, rerankTopN)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(scored))
	for _, doc := range scored {
		c, ok := byID[doc.ID]
		if !ok {
			continue
		}
		c.RerankScore = doc.RelevanceScore
		out = append(out, c)
	}
	return out, nil
}
