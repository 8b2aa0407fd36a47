package series

import (
	"fmt"
	"sort"
	"time"

	"github.com/ratechart/ratechart/internal/dataset"
)

// WeekStart returns the Sunday on or before t.
func WeekStart(t time.Time) time.Time {
	return t.AddDate(0, 0, -int(t.Weekday()))
}

// AggregateByWeek collapses daily records into one record per week, keyed by
// the week's Sunday. Counts are summed per variation id; an id present on
// only one side of a record contributes zero to the other side. The result is
// sorted by week key and shares no maps with the input.
func AggregateByWeek(daily []dataset.DailyRecord) ([]dataset.DailyRecord, error) {
	buckets := make(map[string]*dataset.DailyRecord)

	for i, day := range daily {
		t, err := day.Time()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		key := WeekStart(t).Format(dataset.DateLayout)
		week, ok := buckets[key]
		if !ok {
			week = &dataset.DailyRecord{
				Date:        key,
				Visits:      make(map[string]int),
				Conversions: make(map[string]int),
			}
			buckets[key] = week
		}

		for id, n := range day.Visits {
			week.Visits[id] += n
			week.Conversions[id] += 0
		}
		for id, n := range day.Conversions {
			week.Conversions[id] += n
			week.Visits[id] += 0
		}
	}

	out := make([]dataset.DailyRecord, 0, len(buckets))
	for _, week := range buckets {
		out = append(out, *week)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})

	return out, nil
}
