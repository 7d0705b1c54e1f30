// Package exercise provides the exercise catalog and its retrieval index:
// an embedded chromem-go vector collection for semantic search plus a
// keyword fallback over the catalog mirror. The index is the retrieval
// collaborator consumed by the planning pipeline.
package exercise

import (
	"context"
	"errors"
)

// Sentinel errors for index operations.
var (
	// ErrInvalidConfig indicates invalid index configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyExercises indicates an empty import batch.
	ErrEmptyExercises = errors.New("empty or nil exercises")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")
)

// Exercise is one catalog entry.
type Exercise struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	MuscleGroups []string `json:"muscle_groups"`
	Equipment    []string `json:"equipment,omitempty"`
	Level        string   `json:"level,omitempty"`
	Description  string   `json:"description,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	ImageFile    string   `json:"image_file,omitempty"`

	// Distance is the cosine distance from the query embedding when the
	// exercise was found semantically; nil otherwise.
	Distance *float64 `json:"distance,omitempty"`
}

// SearchRequest parameterizes one retrieval call.
type SearchRequest struct {
	// Query is the optional free-text query. Ignored by the keyword path
	// when empty.
	Query string

	// Muscles filters results to exercises containing any of these muscle
	// groups. Empty means no muscle filter.
	Muscles []string

	// Limit caps the result count.
	Limit int

	// Semantic requests embedding-based search. The index falls back to
	// keyword search when semantic mode is unavailable.
	Semantic bool
}

// Retriever is the retrieval collaborator interface.
type Retriever interface {
	Search(ctx context.Context, req SearchRequest) ([]Exercise, error)
}

// Embedder generates vector embeddings from text.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
