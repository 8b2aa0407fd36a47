// Package format renders rates and counts for people. The values themselves
// are never rounded; only their text is.
package format

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Rate renders a percentage with two decimals, e.g. "33.33".
func Rate(rate float64) string {
	return decimal.NewFromFloat(rate).StringFixed(2)
}

// Percent is Rate with a trailing percent sign.
func Percent(rate float64) string {
	return Rate(rate) + "%"
}

// Number adds thousands separators.
func Number(n int) string {
	return humanize.Comma(int64(n))
}
