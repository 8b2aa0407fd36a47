package dataset

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrMalformed        = errors.New("malformed dataset")
	ErrMissingCounts    = errors.New("missing visits or conversions")
	ErrInvalidDate      = errors.New("invalid date")
	ErrNegativeCount    = errors.New("negative count")
	ErrInvalidVariation = errors.New("invalid variation")
)

// Validate checks the dataset shape. Unknown ids, mismatched keys and
// conversions above visits are not errors; see Anomalies.
func (d *Dataset) Validate() error {
	for i, v := range d.Variations {
		if v.Name == "" {
			return fmt.Errorf("variation %d: %w: empty name", i, ErrInvalidVariation)
		}
	}

	for i, r := range d.Data {
		if r.Visits == nil {
			return fmt.Errorf("record %d (%s): %w: visits", i, r.Date, ErrMissingCounts)
		}
		if r.Conversions == nil {
			return fmt.Errorf("record %d (%s): %w: conversions", i, r.Date, ErrMissingCounts)
		}
		if _, err := ParseDate(r.Date); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if err := checkCounts(r.Visits); err != nil {
			return fmt.Errorf("record %d (%s) visits: %w", i, r.Date, err)
		}
		if err := checkCounts(r.Conversions); err != nil {
			return fmt.Errorf("record %d (%s) conversions: %w", i, r.Date, err)
		}
	}

	return nil
}

func checkCounts(counts map[string]int) error {
	for id, n := range counts {
		if n < 0 {
			return fmt.Errorf("%w: id %s = %d", ErrNegativeCount, id, n)
		}
	}
	return nil
}

type AnomalyKind string

const (
	ConversionsExceedVisits AnomalyKind = "conversions_exceed_visits"
	DuplicateName           AnomalyKind = "duplicate_name"
)

// Anomaly is a data property worth reporting that is not rejected.
type Anomaly struct {
	Kind        AnomalyKind
	Date        string
	VariationID string
	Name        string
	Visits      int
	Conversions int
}

func (a Anomaly) String() string {
	switch a.Kind {
	case ConversionsExceedVisits:
		return fmt.Sprintf("%s: id %s has %d conversions for %d visits", a.Date, a.VariationID, a.Conversions, a.Visits)
	case DuplicateName:
		return fmt.Sprintf("variation name %q is used more than once; id %s wins", a.Name, a.VariationID)
	default:
		return string(a.Kind)
	}
}

// Anomalies lists duplicate variation names and every date/id pair with more
// conversions than visits.
func (d *Dataset) Anomalies() []Anomaly {
	var out []Anomaly

	seen := make(map[string]int)
	for _, v := range d.Variations {
		seen[v.Name]++
	}
	for i := len(d.Variations) - 1; i >= 0; i-- {
		v := d.Variations[i]
		if seen[v.Name] > 1 {
			out = append(out, Anomaly{Kind: DuplicateName, Name: v.Name, VariationID: v.Key()})
			seen[v.Name] = 0
		}
	}

	for _, r := range d.Data {
		ids := make([]string, 0, len(r.Conversions))
		for id := range r.Conversions {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			c := r.Conversions[id]
			v := r.Visits[id]
			if c > v {
				out = append(out, Anomaly{
					Kind:        ConversionsExceedVisits,
					Date:        r.Date,
					VariationID: id,
					Visits:      v,
					Conversions: c,
				})
			}
		}
	}

	return out
}
