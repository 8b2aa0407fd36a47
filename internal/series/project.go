package series

import (
	"encoding/json"

	"github.com/ratechart/ratechart/internal/dataset"
)

// Record is one chart row: a date and one conversion rate per selected
// variation name.
type Record struct {
	Date  string
	Rates map[string]float64
}

// Rate returns the rate for name, or 0 when the column is absent.
func (r Record) Rate(name string) float64 {
	return r.Rates[name]
}

// MarshalJSON flattens the record into {"date": ..., "<name>": rate}. A
// variation literally named "date" replaces the date field.
func (r Record) MarshalJSON() ([]byte, error) {
	row := make(map[string]interface{}, len(r.Rates)+1)
	row["date"] = r.Date
	for name, rate := range r.Rates {
		row[name] = rate
	}
	return json.Marshal(row)
}

// ConversionRate returns conversions/visits as a percentage, or 0 when there
// are no visits. The result is neither rounded nor clamped.
func ConversionRate(visits, conversions int) float64 {
	if visits <= 0 {
		return 0
	}
	return float64(conversions) / float64(visits) * 100
}

// Project turns records into per-date conversion rates for the selected
// variation names. Names that match no variation get 0 on every date. When
// two variations share a name the later one wins.
func Project(ds *dataset.Dataset, selected []string) []Record {
	if ds == nil || len(ds.Variations) == 0 || len(ds.Data) == 0 {
		return []Record{}
	}

	nameToID := make(map[string]string, len(ds.Variations))
	for _, v := range ds.Variations {
		nameToID[v.Name] = v.Key()
	}

	out := make([]Record, len(ds.Data))
	for i, point := range ds.Data {
		rec := Record{
			Date:  point.Date,
			Rates: make(map[string]float64, len(selected)),
		}

		for _, name := range selected {
			id, ok := nameToID[name]
			if !ok || point.Visits == nil || point.Conversions == nil {
				rec.Rates[name] = 0
				continue
			}
			rec.Rates[name] = ConversionRate(point.Visits[id], point.Conversions[id])
		}

		out[i] = rec
	}

	return out
}
