package store

import (
	"context"
	"time"

	"github.com/ratechart/ratechart/internal/dataset"
)

// Store holds the single dataset a ratechart instance serves.
type Store interface {
	SaveDataset(ctx context.Context, ds *dataset.Dataset) error
	LoadDataset(ctx context.Context) (*dataset.Dataset, error)
	Stats(ctx context.Context) (*Stats, error)

	// Lifecycle
	Close() error
}

type Stats struct {
	Variations int
	Days       int
	ImportedAt time.Time
}
