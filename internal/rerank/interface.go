// Package rerank provides relevance re-ranking for retrieved exercise
// candidates. Reranking is never required for correctness: callers must
// degrade to score-based ordering when a reranker fails or is absent.
package rerank

import "context"

// Document is one rerankable item: a compact text rendering of a candidate
// plus its original retrieval score.
type Document struct {
	ID      int     // candidate exercise id
	Content string  // text to be scored against the query
	Score   float64 // original retrieval score
}

// ScoredDocument is a document with its reranker relevance score.
type ScoredDocument struct {
	Document
	RelevanceScore float64 // reranker score, higher is more relevant
	OriginalRank   int     // 0-indexed position before reranking
}

// Reranker re-orders documents by relevance to a query.
type Reranker interface {
	// Rerank returns documents sorted by relevance descending, truncated to
	// topN (topN <= 0 means no truncation).
	Rerank(ctx context.Context, query string, docs []Document, topN int) ([]ScoredDocument, error)
}
