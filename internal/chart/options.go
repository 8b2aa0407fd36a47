package chart

import (
	"errors"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	ErrNoData        = errors.New("no data to chart")
	ErrNoSeries      = errors.New("no variations selected")
	ErrInvalidOption = errors.New("invalid chart option")
)

type LineType string

const (
	Linear LineType = "linear"
	Smooth LineType = "smooth"
	Area   LineType = "area"
)

func ParseLineType(s string) (LineType, error) {
	switch LineType(s) {
	case "", Linear:
		return Linear, nil
	case Smooth, Area:
		return LineType(s), nil
	default:
		return "", fmt.Errorf("%w: line type %q (want linear, smooth or area)", ErrInvalidOption, s)
	}
}

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case "", Light:
		return Light, nil
	case Dark:
		return Dark, nil
	default:
		return "", fmt.Errorf("%w: theme %q (want light or dark)", ErrInvalidOption, s)
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

type palette struct {
	background drawing.Color
	text       drawing.Color
	grid       drawing.Color
}

func (t Theme) palette() palette {
	if t == Dark {
		return palette{
			background: drawing.ColorFromHex("2d2d2d"),
			text:       drawing.ColorFromHex("e0e0e0"),
			grid:       drawing.ColorFromHex("555555"),
		}
	}
	return palette{
		background: drawing.ColorFromHex("ffffff"),
		text:       drawing.ColorFromHex("333333"),
		grid:       drawing.ColorFromHex("dddddd"),
	}
}

// SeriesColors are assigned to selected variations in order, wrapping around.
var SeriesColors = []string{"3877EE", "EF5DA8", "5DBE7E", "FF7C43"}

// SeriesColor returns the hex color (without '#') for the i-th series.
func SeriesColor(i int) string {
	return SeriesColors[i%len(SeriesColors)]
}

type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", PNG:
		return PNG, nil
	case SVG:
		return SVG, nil
	default:
		return "", fmt.Errorf("%w: format %q (want png or svg)", ErrInvalidOption, s)
	}
}

func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// ExportFilename names an exported chart after the export date.
func ExportFilename(now time.Time, f Format) string {
	return fmt.Sprintf("ab-test-chart-%s.%s", now.Format("2006-01-02"), f)
}

const (
	DefaultWidth  = 1024
	DefaultHeight = 400
	ExportScale   = 2
)

type Options struct {
	Line   LineType
	Theme  Theme
	Format Format
	Width  int
	Height int
	Scale  float64
	Title  string
}

func (o Options) withDefaults() Options {
	if o.Line == "" {
		o.Line = Linear
	}
	if o.Theme == "" {
		o.Theme = Light
	}
	if o.Format == "" {
		o.Format = PNG
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	return o
}
