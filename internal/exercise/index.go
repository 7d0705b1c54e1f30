package exercise

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/contract"
)

// catalogFile is the JSON mirror of the catalog, persisted next to the
// chromem data so keyword search survives restarts.
const catalogFile = "catalog.json"

// IndexConfig holds configuration for the exercise index.
type IndexConfig struct {
	// Path is the directory for persistent storage. Empty means in-memory
	// only (used by tests).
	Path string

	// Collection is the chromem collection name.
	Collection string

	// Compress enables gzip compression for persisted vectors.
	Compress bool
}

// ApplyDefaults sets default values for unset fields.
func (c *IndexConfig) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "coachd_exercises"
	}
}

// Index is a chromem-go backed exercise index with a keyword fallback over
// an in-memory catalog mirror.
type Index struct {
	col      *chromem.Collection
	embedder Embedder
	config   IndexConfig
	logger   *zap.Logger

	mu   sync.RWMutex
	byID map[int]Exercise
}

// NewIndex creates an exercise index. A nil embedder disables semantic
// search; keyword search still works.
func NewIndex(cfg IndexConfig, embedder Embedder, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory %s: %w", cfg.Path, err)
		}
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("opening chromem DB: %w", err)
		}
	}

	ix := &Index{
		embedder: embedder,
		config:   cfg,
		logger:   logger,
		byID:     make(map[int]Exercise),
	}

	col, err := db.GetOrCreateCollection(cfg.Collection, nil, ix.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", cfg.Collection, err)
	}
	ix.col = col

	if err := ix.loadCatalog(); err != nil {
		return nil, err
	}

	logger.Info("exercise index ready",
		zap.String("path", cfg.Path),
		zap.String("collection", cfg.Collection),
		zap.Int("exercises", len(ix.byID)),
		zap.Bool("semantic", embedder != nil),
	)

	return ix, nil
}

// embeddingFunc adapts the Embedder interface for chromem.
func (ix *Index) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		if ix.embedder == nil {
			return nil, fmt.Errorf("%w: no embedder configured", ErrEmbeddingFailed)
		}
		return ix.embedder.EmbedQuery(ctx, text)
	}
}

// Document renders the compact text indexed for an exercise: title, muscle
// groups, equipment, and level, kept short to control embedding cost.
func Document(ex Exercise) string {
	parts := []string{ex.Title}
	if len(ex.MuscleGroups) > 0 {
		parts = append(parts, "Muscles: "+strings.Join(ex.MuscleGroups, ", "))
	}
	if len(ex.Equipment) > 0 {
		parts = append(parts, "Equipment: "+strings.Join(ex.Equipment, ", "))
	}
	if ex.Level != "" {
		parts = append(parts, "Level: "+ex.Level)
	}
	return strings.Join(parts, "\n")
}

// Add indexes a batch of exercises: vectors into chromem (when an embedder
// is configured) and records into the catalog mirror.
func (ix *Index) Add(ctx context.Context, exercises []Exercise) error {
	if len(exercises) == 0 {
		return ErrEmptyExercises
	}

	if ix.embedder != nil {
		texts := make([]string, len(exercises))
		for i, ex := range exercises {
			texts[i] = Document(ex)
		}

		embeddings, err := ix.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
		}
		if len(embeddings) != len(exercises) {
			return fmt.Errorf("%w: got %d embeddings for %d exercises", ErrEmbeddingFailed, len(embeddings), len(exercises))
		}

		docs := make([]chromem.Document, len(exercises))
		for i, ex := range exercises {
			docs[i] = chromem.Document{
				ID:        strconv.Itoa(ex.ID),
				Content:   texts[i],
				Embedding: embeddings[i],
				Metadata: map[string]string{
					"title":   ex.Title,
					"muscles": strings.Join(ex.MuscleGroups, ","),
				},
			}
		}
		if err := ix.col.AddDocuments(ctx, docs, 1); err != nil {
			return fmt.Errorf("adding documents: %w", err)
		}
	}

	ix.mu.Lock()
	for _, ex := range exercises {
		ex.Distance = nil
		ix.byID[ex.ID] = ex
	}
	ix.mu.Unlock()

	return ix.saveCatalog()
}

// Count reports the number of cataloged exercises.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byID)
}

// Get returns a cataloged exercise by id.
func (ix *Index) Get(id int) (Exercise, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ex, ok := ix.byID[id]
	return ex, ok
}

// Search implements Retriever. Semantic requests use the vector collection
// and fall back to keyword search when semantic mode is unavailable or the
// query fails; keyword requests filter the catalog mirror directly.
func (ix *Index) Search(ctx context.Context, req SearchRequest) ([]Exercise, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	if req.Semantic && strings.TrimSpace(req.Query) != "" && ix.embedder != nil {
		results, err := ix.semanticSearch(ctx, req.Query, req.Muscles, limit)
		if err == nil {
			return results, nil
		}
		ix.logger.Warn("semantic search unavailable, falling back to keyword",
			zap.Error(err),
		)
	}

	return ix.keywordSearch(req.Query, req.Muscles, limit), nil
}

func (ix *Index) semanticSearch(ctx context.Context, query string, muscles []string, limit int) ([]Exercise, error) {
	total := ix.col.Count()
	if total == 0 {
		return []Exercise{}, nil
	}

	// Overfetch when a muscle filter applies, since filtering happens after
	// the vector query.
	fetch := limit
	if len(muscles) > 0 {
		fetch = limit * 3
	}
	if fetch > total {
		fetch = total
	}

	results, err := ix.col.Query(ctx, query, fetch, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	out := make([]Exercise, 0, limit)
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for _, res := range results {
		id, err := strconv.Atoi(res.ID)
		if err != nil {
			continue
		}
		ex, ok := ix.byID[id]
		if !ok {
			continue
		}
		if !matchesMuscles(ex, muscles) {
			continue
		}

		distance := float64(1 - res.Similarity)
		ex.Distance = &distance
		out = append(out, ex)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (ix *Index) keywordSearch(query string, muscles []string, limit int) []Exercise {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	matched := make([]Exercise, 0, limit)
	for _, ex := range ix.byID {
		if matchesMuscles(ex, muscles) && matchesQuery(ex, query) {
			matched = append(matched, ex)
		}
	}

	// Deterministic order for a store backed by a map.
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// matchesMuscles reports whether the exercise covers any of the requested
// muscle groups. An empty filter matches everything.
func matchesMuscles(ex Exercise, muscles []string) bool {
	if len(muscles) == 0 {
		return true
	}
	for _, want := range muscles {
		w := contract.CanonicalizeMuscle(want)
		for _, have := range ex.MuscleGroups {
			if contract.CanonicalizeMuscle(have) == w {
				return true
			}
		}
	}
	return false
}

// matchesQuery reports whether any query token appears in the exercise
// title. An empty query matches everything.
func matchesQuery(ex Exercise, query string) bool {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return true
	}
	title := strings.ToLower(ex.Title)
	for _, tok := range strings.Fields(query) {
		if strings.Contains(title, tok) {
			return true
		}
	}
	return false
}

func (ix *Index) catalogPath() string {
	if ix.config.Path == "" {
		return ""
	}
	return filepath.Join(ix.config.Path, catalogFile)
}

func (ix *Index) loadCatalog() error {
	path := ix.catalogPath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading catalog: %w", err)
	}

	var exercises []Exercise
	if err := json.Unmarshal(data, &exercises); err != nil {
		return fmt.Errorf("parsing catalog: %w", err)
	}

	ix.mu.Lock()
	for _, ex := range exercises {
		ix.byID[ex.ID] = ex
	}
	ix.mu.Unlock()
	return nil
}

func (ix *Index) saveCatalog() error {
	path := ix.catalogPath()
	if path == "" {
		return nil
	}

	ix.mu.RLock()
	exercises := make([]Exercise, 0, len(ix.byID))
	for _, ex := range ix.byID {
		exercises = append(exercises, ex)
	}
	ix.mu.RUnlock()
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].ID < exercises[j].ID })

	data, err := json.MarshalIndent(exercises, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}
