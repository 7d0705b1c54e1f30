package rerank

import (
	"context"
	"sort"
	"strings"
)

// LexicalReranker scores documents by term overlap with the query, blended
// with the original retrieval score. It has no external dependencies and
// never fails, which makes it the default reranker.
type LexicalReranker struct{}

// NewLexicalReranker creates a LexicalReranker.
func NewLexicalReranker() *LexicalReranker {
	return &LexicalReranker{}
}

// Rerank blends 50% original score with 50% query-term overlap and sorts
// descending. An empty query falls back to score ordering.
func (r *LexicalReranker) Rerank(ctx context.Context, query string, docs []Document, topN int) ([]ScoredDocument, error) {
	if topN <= 0 || topN > len(docs) {
		topN = len(docs)
	}
	if len(docs) == 0 {
		return []ScoredDocument{}, nil
	}

	queryTokens := tokenize(query)

	scored := make([]ScoredDocument, len(docs))
	for i, doc := range docs {
		overlap := termOverlap(queryTokens, tokenize(doc.Content))
		scored[i] = ScoredDocument{
			Document:       doc,
			RelevanceScore: 0.5*doc.Score + 0.5*overlap,
			OriginalRank:   i,
		}
	}

	if len(queryTokens) == 0 {
		for i := range scored {
			scored[i].RelevanceScore = scored[i].Score
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})

	return scored[:topN], nil
}

// tokenize lowercases and splits on non-alphanumeric runes, dropping short
// tokens.
func tokenize(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '_'
	})
	out := tokens[:0]
	for _, tok := range tokens {
		if len(tok) > 2 {
			out = append(out, tok)
		}
	}
	return out
}

// termOverlap returns the fraction of unique query tokens present in the
// document tokens, in [0,1].
func termOverlap(queryTokens, docTokens []string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	docSet := make(map[string]struct{}, len(docTokens))
	for _, tok := range docTokens {
		docSet[tok] = struct{}{}
	}

	matched := make(map[string]struct{})
	for _, tok := range queryTokens {
		if _, ok := docSet[tok]; ok {
			matched[tok] = struct{}{}
		}
	}

	unique := make(map[string]struct{}, len(queryTokens))
	for _, tok := range queryTokens {
		unique[tok] = struct{}{}
	}

	return float64(len(matched)) / float64(len(unique))
}
