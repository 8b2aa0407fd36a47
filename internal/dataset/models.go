package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the calendar-date form used for record dates and week keys.
const DateLayout = "2006-01-02"

// SentinelID is the identifier used for variations without an id.
const SentinelID = "0"

// Variation is one arm of an experiment.
type Variation struct {
	ID   string // empty when absent on the wire
	Name string
}

// Key returns the identifier used to index visits and conversions.
func (v Variation) Key() string {
	if v.ID == "" {
		return SentinelID
	}
	return v.ID
}

type variationJSON struct {
	ID   json.RawMessage `json:"id,omitempty"`
	Name string          `json:"name"`
}

func (v *Variation) UnmarshalJSON(b []byte) error {
	var raw variationJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	id, err := decodeID(raw.ID)
	if err != nil {
		return fmt.Errorf("variation %q: %w", raw.Name, err)
	}

	v.ID = id
	v.Name = raw.Name
	return nil
}

func (v Variation) MarshalJSON() ([]byte, error) {
	out := struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name"`
	}{ID: v.ID, Name: v.Name}
	return json.Marshal(out)
}

// decodeID accepts a JSON string, number or null.
func decodeID(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return "", fmt.Errorf("%w: bad id: %v", ErrMalformed, err)
	}

	switch id := value.(type) {
	case nil:
		return "", nil
	case string:
		return id, nil
	case json.Number:
		f, err := id.Float64()
		if err != nil {
			return "", fmt.Errorf("%w: bad id %s", ErrMalformed, id)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: id must be a string or number, got %s", ErrMalformed, trimmed)
	}
}

// DailyRecord holds one date's counts keyed by variation id. A nil map
// means the field was missing from the source.
type DailyRecord struct {
	Date        string         `json:"date"`
	Visits      map[string]int `json:"visits"`
	Conversions map[string]int `json:"conversions"`
}

// Time parses the record date.
func (r DailyRecord) Time() (time.Time, error) {
	return ParseDate(r.Date)
}

type Dataset struct {
	Variations []Variation   `json:"variations"`
	Data       []DailyRecord `json:"data"`
}

// VariationNames returns the variation names in dataset order.
func (d *Dataset) VariationNames() []string {
	names := make([]string, len(d.Variations))
	for i, v := range d.Variations {
		names[i] = v.Name
	}
	return names
}

// WithData returns a shallow copy of the dataset carrying different records.
func (d *Dataset) WithData(data []DailyRecord) *Dataset {
	return &Dataset{Variations: d.Variations, Data: data}
}

// ParseDate parses a calendar date. RFC 3339 timestamps are accepted and
// reduced to their calendar date in their own offset.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), nil
}
