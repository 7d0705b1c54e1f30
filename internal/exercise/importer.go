package exercise

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/contract"
)

// importRecord is the on-disk shape of one exercise in a catalog dump.
// Muscle groups tolerate legacy tokens; they are canonicalized on import.
type importRecord struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	MuscleGroups []string `json:"muscle_groups"`
	Equipment    []string `json:"equipment"`
	Level        string   `json:"level"`
	Description  string   `json:"description"`
	ImageURL     string   `json:"image_url"`
	ImageFile    string   `json:"image_file"`
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportJSON reads a JSON array of exercise records and indexes them.
// Records without a title are skipped; records without an id are assigned
// the next free one. Muscle groups are canonicalized (glutes -> hips).
func ImportJSON(ctx context.Context, ix *Index, r io.Reader, logger *zap.Logger) (ImportResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("reading import data: %w", err)
	}

	var records []importRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return ImportResult{}, fmt.Errorf("parsing import data: %w", err)
	}

	nextID := 1
	for _, rec := range records {
		if rec.ID >= nextID {
			nextID = rec.ID + 1
		}
	}

	var (
		batch   []Exercise
		skipped int
	)
	for _, rec := range records {
		if rec.Title == "" {
			skipped++
			continue
		}

		id := rec.ID
		if id <= 0 {
			id = nextID
			nextID++
		}

		muscles := make([]string, 0, len(rec.MuscleGroups))
		for _, m := range rec.MuscleGroups {
			if canon := contract.CanonicalizeMuscle(m); canon != "" {
				muscles = append(muscles, canon)
			}
		}

		batch = append(batch, Exercise{
			ID:           id,
			Title:        rec.Title,
			MuscleGroups: muscles,
			Equipment:    rec.Equipment,
			Level:        rec.Level,
			Description:  rec.Description,
			ImageURL:     rec.ImageURL,
			ImageFile:    rec.ImageFile,
		})
	}

	if len(batch) == 0 {
		return ImportResult{Skipped: skipped}, ErrEmptyExercises
	}

	if err := ix.Add(ctx, batch); err != nil {
		return ImportResult{Skipped: skipped}, err
	}

	logger.Info("exercise import complete",
		zap.Int("imported", len(batch)),
		zap.Int("skipped", skipped),
	)
	return ImportResult{Imported: len(batch), Skipped: skipped}, nil
}

// ImportFile opens path and imports its JSON contents.
func ImportFile(ctx context.Context, ix *Index, path string, logger *zap.Logger) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ImportJSON(ctx, ix, f, logger)
}
