package testutil

import (
	"testing"

	"github.com/ratechart/ratechart/internal/dataset"
	"github.com/ratechart/ratechart/internal/store"
)

// SetupTestStore creates a test database and returns the store.
// Uses t.TempDir() for automatic cleanup on test completion.
func SetupTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := tmpDir + "/test.db"

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// SampleDataset returns three variations over one week and a day of the next
// (2024-01-01 is a Monday).
func SampleDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Variations: []dataset.Variation{
			{Name: "Original"},
			{ID: "10001", Name: "Variation A"},
			{ID: "10002", Name: "Variation B"},
		},
		Data: []dataset.DailyRecord{
			{
				Date:        "2024-01-01",
				Visits:      map[string]int{"0": 100, "10001": 80, "10002": 50},
				Conversions: map[string]int{"0": 25, "10001": 20, "10002": 5},
			},
			{
				Date:        "2024-01-02",
				Visits:      map[string]int{"0": 100, "10001": 120},
				Conversions: map[string]int{"0": 15, "10001": 30, "10002": 2},
			},
			{
				Date:        "2024-01-07",
				Visits:      map[string]int{"0": 200, "10001": 100, "10002": 100},
				Conversions: map[string]int{"0": 40, "10001": 10, "10002": 10},
			},
		},
	}
}
