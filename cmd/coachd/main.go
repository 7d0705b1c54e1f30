// Coachd is a workout plan generation daemon.
//
// It serves an HTTP API that turns a user goal and weekly availability
// into an exercise plan, using a structured-generation backend with a
// bounded evaluate/repair loop over a semantic exercise index.
//
// Usage:
//
//	# Start the server
//	coachd serve
//
//	# Import an exercise catalog
//	coachd import exercises.json
//
//	# Configure via file or environment
//	coachd serve --config /etc/coachd/config.yaml
//	SERVER_HTTP_PORT=9090 LLM_API_KEY=... coachd serve
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configFile overrides the default config path.
	configFile string
	// version information (set via ldflags during build)
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "coachd",
	Short:   "Workout plan generation daemon",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default ~/.config/coachd/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
}
