package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ratechart/ratechart/internal/dataset"
	"github.com/ratechart/ratechart/internal/selection"
	"github.com/ratechart/ratechart/internal/series"
	"github.com/ratechart/ratechart/internal/store"
)

// withStore opens the database, executes the function, and handles cleanup.
func withStore(fn func(store.Store) error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// loadDataset reads the dataset from --db when set, otherwise from --data.
func loadDataset(ctx context.Context) (*dataset.Dataset, error) {
	if dbPath == "" {
		return dataset.Load(ctx, dataSource)
	}

	var ds *dataset.Dataset
	err := withStore(func(s store.Store) error {
		var err error
		ds, err = s.LoadDataset(ctx)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no dataset in %s\nImport one with: ratechart import data.json --db %s", dbPath, dbPath)
	}
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// viewFlags are the range and variation flags shared by series and export.
type viewFlags struct {
	rangeName  string
	variations []string
	all        bool
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.rangeName, "range", "r", "day", "time range: day or week")
	cmd.Flags().StringSliceVarP(&f.variations, "variations", "v", nil, "variation names to include (default: Original)")
	cmd.Flags().BoolVarP(&f.all, "all", "a", false, "include every variation")
}

func (f *viewFlags) resolve(names []string) (series.Granularity, *selection.Selection, error) {
	g, err := series.ParseGranularity(f.rangeName)
	if err != nil {
		return "", nil, err
	}

	sel := selection.Parse(f.variations)
	if f.all {
		sel.SelectAll(names)
	}
	if sel.Len() == 0 {
		sel = selection.Default(names)
	}
	return g, sel, nil
}
