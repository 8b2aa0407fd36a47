package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ratechart/ratechart/internal/dataset"
	"github.com/ratechart/ratechart/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json|url>",
	Short: "Import a dataset into the database",
	Long: `Validate a dataset and store it in the database given by --db,
replacing whatever was imported before. Later commands read it with --db.

Examples:
  ratechart import data.json --db ratechart.db
  ratechart import https://example.com/data.json --db postgres://localhost/ratechart`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if dbPath == "" {
		return fmt.Errorf("--db is required (or set RC_DB)")
	}

	ctx := commandContext(cmd)
	ds, err := dataset.Load(ctx, args[0])
	if err != nil {
		return err
	}
	logAnomalies(ds)

	return withStore(func(s store.Store) error {
		if err := s.SaveDataset(ctx, ds); err != nil {
			return fmt.Errorf("failed to import dataset: %w", err)
		}

		stats, err := s.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to read stats: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d variations and %d days into %s\n", stats.Variations, stats.Days, dbPath)
		return nil
	})
}
