package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/config"
	"github.com/fyrsmithlabs/coachd/internal/exercise"
	"github.com/fyrsmithlabs/coachd/internal/logging"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an exercise catalog from a JSON file",
	Long: `Import an exercise catalog from a JSON file into the index.

The file holds an array of exercises. Records without a title are
skipped; records without an id are assigned the next free one.
Re-importing an existing id overwrites it.

Examples:
  coachd import exercises.json
  coachd import --config /etc/coachd/config.yaml exercises.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	if cfg.Index.Path == "" {
		return fmt.Errorf("index path is required for import (set index.path or INDEX_PATH)")
	}

	index, err := buildIndex(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize exercise index: %w", err)
	}

	result, err := exercise.ImportFile(cmd.Context(), index, args[0], logger)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	logger.Info("import complete",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("total", index.Count()))

	fmt.Printf("Imported %d exercises (%d skipped), catalog now holds %d\n",
		result.Imported, result.Skipped, index.Count())

	return nil
}
