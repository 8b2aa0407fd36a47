package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dataSource string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "ratechart",
	Short: "ratechart - conversion-rate charts for A/B test variations",
	Long: `ratechart turns daily visit and conversion counts per experiment
variation into conversion-rate series, by day or by week.

The dataset is read once at startup from --data (a JSON file or URL) or,
when --db is set, from a database filled with 'ratechart import'.

Running without a subcommand starts the server (same as 'ratechart serve').`,
	SilenceUsage: true,
	RunE:         runServe, // Default action is to start server
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dataSource, "data", getEnvOrDefault("RC_DATA", "./data.json"), "dataset JSON file or http(s) URL")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("RC_DB", ""), "SQLite path or postgres:// DSN to read the dataset from")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
