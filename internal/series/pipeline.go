package series

import (
	"errors"
	"fmt"

	"github.com/ratechart/ratechart/internal/dataset"
)

var ErrInvalidGranularity = errors.New("invalid time range")

type Granularity string

const (
	Day  Granularity = "day"
	Week Granularity = "week"
)

// ParseGranularity accepts "day" or "week"; empty means Day.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case "", Day:
		return Day, nil
	case Week:
		return Week, nil
	default:
		return "", fmt.Errorf("%w: %q (want day or week)", ErrInvalidGranularity, s)
	}
}

// Build runs the whole pipeline: optional weekly aggregation followed by
// projection. Callers re-run it whenever the dataset, granularity or
// selection changes.
func Build(ds *dataset.Dataset, g Granularity, selected []string) ([]Record, error) {
	if ds == nil || len(ds.Variations) == 0 || len(ds.Data) == 0 {
		return []Record{}, nil
	}

	switch g {
	case Day, "":
		return Project(ds, selected), nil
	case Week:
		weekly, err := AggregateByWeek(ds.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate by week: %w", err)
		}
		return Project(ds.WithData(weekly), selected), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidGranularity, g)
	}
}
