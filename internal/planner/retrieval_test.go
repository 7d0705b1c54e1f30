package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/coachd/internal/exercise"
	"github.com/fyrsmithlabs/coachd/internal/rerank"
)

func TestDistanceToScore(t *testing.T) {
	assert.InDelta(t, 1.0, distanceToScore(0), 1e-9)
	assert.InDelta(t, 0.5, distanceToScore(1), 1e-9)
	assert.InDelta(t, 1.0, distanceToScore(-0.5), 1e-9, "negative distances clamp to zero")
	assert.Greater(t, distanceToScore(0.2), distanceToScore(0.8))
}

func TestRetrievalFingerprint(t *testing.T) {
	p := Profile{UserID: "u1", DaysPerWeek: 3, SessionMinutes: 45}

	a := retrievalFingerprint(p, "hypertrophy", "big chest", []string{"chest", "back"})
	b := retrievalFingerprint(p, "hypertrophy", "big chest", []string{"back", "chest"})
	assert.Equal(t, a, b, "muscle order does not change the fingerprint")

	c := retrievalFingerprint(p, "strength", "big chest", []string{"chest", "back"})
	assert.NotEqual(t, a, c)

	seed := int64(7)
	p.Seed = &seed
	d := retrievalFingerprint(p, "hypertrophy", "big chest", []string{"chest", "back"})
	assert.NotEqual(t, a, d, "seed varies the fingerprint")

	anon := retrievalFingerprint(Profile{DaysPerWeek: 3, SessionMinutes: 45}, "", "", nil)
	assert.Contains(t, anon, "anon")
}

func retrievalProfile() Profile {
	goal := intentGoal()
	return Profile{
		UserID:         "u1",
		GoalText:       "bigger chest",
		DaysPerWeek:    3,
		SessionMinutes: 45,
		TrainingDays:   []string{"mon", "wed", "fri"},
		InternalGoal:   &goal,
	}
}

func TestBuildCandidatePoolDedupes(t *testing.T) {
	ret := &fakeRetriever{exercises: catalogOf(40, "chest")}
	svc := newTestService(t, &fakeGenerator{}, ret)

	pool, warns := svc.buildCandidatePool(context.Background(), retrievalProfile(), Constraints{})
	assert.Empty(t, warns)
	assert.Len(t, pool, 40)

	seen := make(map[int]struct{})
	for _, c := range pool {
		_, dup := seen[c.ID]
		assert.False(t, dup, "pool must be unique by id")
		seen[c.ID] = struct{}{}
		assert.Equal(t, "muscle:chest", c.Reason)
		assert.InDelta(t, 0.9, c.Score, 1e-9)
	}
}

func TestBuildCandidatePoolSemanticReason(t *testing.T) {
	dist := 0.25
	exercises := catalogOf(40, "chest")
	for i := range exercises {
		d := dist
		exercises[i].Distance = &d
	}
	ret := &fakeRetriever{exercises: exercises}
	svc := newTestService(t, &fakeGenerator{}, ret)

	pool, _ := svc.buildCandidatePool(context.Background(), retrievalProfile(), Constraints{})
	require.NotEmpty(t, pool)
	assert.Equal(t, "semantic:chest", pool[0].Reason)
	assert.InDelta(t, 1.0/1.25, pool[0].Score, 1e-9)
}

func TestBuildCandidatePoolBroadFallback(t *testing.T) {
	// Catalog is mostly back exercises; the chest-only passes leave the
	// pool under the floor and the broad query must fill it.
	exercises := append(catalogOf(10, "chest"), func() []exercise.Exercise {
		more := catalogOf(30, "back")
		for i := range more {
			more[i].ID += 100
		}
		return more
	}()...)
	ret := &fakeRetriever{exercises: exercises}
	svc := newTestService(t, &fakeGenerator{}, ret)

	pool, _ := svc.buildCandidatePool(context.Background(), retrievalProfile(), Constraints{})
	assert.Greater(t, len(pool), 10, "broad fallback tops up the pool")

	var fallback int
	for _, c := range pool {
		if c.Reason == "fallback_pool" {
			fallback++
			assert.InDelta(t, 0.5, c.Score, 1e-9)
		}
	}
	assert.NotZero(t, fallback)
}

func TestBuildCandidatePoolTruncates(t *testing.T) {
	ret := &fakeRetriever{exercises: catalogOf(80, "chest")}
	svc := newTestService(t, &fakeGenerator{}, ret)

	p := retrievalProfile()
	p.InternalGoal = nil // full taxonomy, chest share 10 then broad fallback

	pool, _ := svc.buildCandidatePool(context.Background(), p, Constraints{})
	assert.LessOrEqual(t, len(pool), defaultPoolSize)
}

func TestBuildCandidatePoolCaches(t *testing.T) {
	ret := &fakeRetriever{exercises: catalogOf(40, "chest")}
	svc := newTestService(t, &fakeGenerator{}, ret)

	first, _ := svc.buildCandidatePool(context.Background(), retrievalProfile(), Constraints{})
	calls := len(ret.requests)
	second, _ := svc.buildCandidatePool(context.Background(), retrievalProfile(), Constraints{})

	assert.Equal(t, calls, len(ret.requests), "second call is served from cache")
	assert.Equal(t, first, second)
}

func TestBuildCandidatePoolLexicalRerank(t *testing.T) {
	ret := &fakeRetriever{exercises: catalogOf(40, "chest")}
	svc, err := NewService(Options{
		Generator: &fakeGenerator{},
		Retriever: ret,
		Reranker:  rerank.NewLexicalReranker(),
	})
	require.NoError(t, err)

	pool, warns := svc.buildCandidatePool(context.Background(), retrievalProfile(), Constraints{})
	assert.Empty(t, warns)
	require.NotEmpty(t, pool)
	assert.LessOrEqual(t, len(pool), rerankTopN)
	assert.NotZero(t, pool[0].RerankScore)
}

type failingReranker struct{}

func (failingReranker) Rerank(context.Context, string, []rerank.Document, int) ([]rerank.ScoredDocument, error) {
	return nil, errors.New("rerank backend down")
}

func TestBuildCandidatePoolRerankDegrades(t *testing.T) {
	exercises := catalogOf(40, "chest")
	for i := range exercises {
		d := float64(i) / 100.0
		exercises[i].Distance = &d
	}
	ret := &fakeRetriever{exercises: exercises}
	svc, err := NewService(Options{
		Generator: &fakeGenerator{},
		Retriever: ret,
		Reranker:  failingReranker{},
	})
	require.NoError(t, err)

	pool, warns := svc.buildCandidatePool(context.Background(), retrievalProfile(), Constraints{})
	require.Len(t, warns, 1)
	assert.Equal(t, WarningRerankDegraded, warns[0].Type)

	require.NotEmpty(t, pool)
	for i := 1; i < len(pool); i++ {
		assert.GreaterOrEqual(t, pool[i-1].Score, pool[i].Score, "degraded ordering is score-sorted")
	}
}
