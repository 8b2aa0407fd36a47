package chart

import (
	"fmt"
	"html"
	"io"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ratechart/ratechart/internal/dataset"
	"github.com/ratechart/ratechart/internal/series"
)

// smoothSteps is the number of samples drawn per segment of a smoothed line.
const smoothSteps = 8

// Render draws one line per selected variation over the record dates.
func Render(w io.Writer, records []series.Record, selected []string, opts Options) error {
	opts = opts.withDefaults()

	if len(records) == 0 {
		return ErrNoData
	}
	if len(selected) == 0 {
		return ErrNoSeries
	}

	times := make([]time.Time, len(records))
	for i, r := range records {
		t, err := dataset.ParseDate(r.Date)
		if err != nil {
			return fmt.Errorf("failed to chart %s: %w", r.Date, err)
		}
		times[i] = t
	}

	maxY := 0.0
	lines := make([]gochart.Series, 0, len(selected))
	for i, name := range selected {
		xs := append([]time.Time(nil), times...)
		ys := make([]float64, len(records))
		for j, r := range records {
			ys[j] = r.Rate(name)
			maxY = math.Max(maxY, ys[j])
		}

		// a single date still needs a non-zero x range
		if len(xs) == 1 {
			xs = append(xs, xs[0].AddDate(0, 0, 1))
			ys = append(ys, ys[0])
		}

		if opts.Line != Linear {
			xs, ys = smooth(xs, ys)
		}

		color := drawing.ColorFromHex(SeriesColor(i))
		style := gochart.Style{
			StrokeColor: color,
			StrokeWidth: 2 * opts.Scale,
		}
		if opts.Line == Area {
			style.FillColor = color.WithAlpha(77)
		}

		lines = append(lines, gochart.TimeSeries{
			Name:    opts.text(name),
			XValues: xs,
			YValues: ys,
			Style:   style,
		})
	}

	pal := opts.Theme.palette()
	axisStyle := gochart.Style{
		FontColor:   pal.text,
		StrokeColor: pal.grid,
		FontSize:    9 * opts.Scale,
	}

	ch := gochart.Chart{
		Title:      opts.text(opts.Title),
		TitleStyle: gochart.Style{FontColor: pal.text},
		Width:      int(float64(opts.Width) * opts.Scale),
		Height:     int(float64(opts.Height) * opts.Scale),
		DPI:        gochart.DefaultDPI * opts.Scale,
		Background: gochart.Style{
			FillColor: pal.background,
			Padding:   gochart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: gochart.Style{FillColor: pal.background},
		XAxis: gochart.XAxis{
			Style:          axisStyle,
			ValueFormatter: gochart.TimeValueFormatterWithFormat("Jan 2"),
		},
		YAxis: gochart.YAxis{
			Style:          axisStyle,
			ValueFormatter: percentFormatter,
			Range:          &gochart.ContinuousRange{Min: 0, Max: niceMax(maxY)},
			GridMajorStyle: gochart.Style{
				StrokeColor:     pal.grid,
				StrokeWidth:     1,
				StrokeDashArray: []float64{3, 3},
			},
		},
		Series: lines,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch, gochart.Style{
		FillColor:   pal.background,
		FontColor:   pal.text,
		StrokeColor: pal.grid,
	})}

	provider := gochart.PNG
	if opts.Format == SVG {
		provider = gochart.SVG
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func percentFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f%%", f)
	}
	return ""
}

// niceMax rounds the axis top up to a multiple of ten, at least 10.
func niceMax(maxY float64) float64 {
	if maxY <= 10 {
		return 10
	}
	return math.Ceil(maxY/10) * 10
}

// smooth resamples the series along a monotone curve. Dates that are not
// strictly increasing are left as they are.
func smooth(ts []time.Time, ys []float64) ([]time.Time, []float64) {
	xs := make([]float64, len(ts))
	for i, t := range ts {
		xs[i] = float64(t.Unix())
		if i > 0 && xs[i] <= xs[i-1] {
			return ts, ys
		}
	}

	sx, sy := monotoneSpline(xs, ys, smoothSteps)
	out := make([]time.Time, len(sx))
	for i, x := range sx {
		out[i] = time.Unix(int64(math.Round(x)), 0).UTC()
	}
	return out, sy
}

// text prepares a label for the output format. go-chart writes SVG text
// nodes verbatim.
func (o Options) text(s string) string {
	if o.Format == SVG {
		return html.EscapeString(s)
	}
	return s
}
