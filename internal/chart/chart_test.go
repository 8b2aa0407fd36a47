package chart_test

import (
	"bytes"
	"encoding/xml"
	"errors"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ratechart/ratechart/internal/chart"
	"github.com/ratechart/ratechart/internal/series"
)

func records(dates []string, name string, rates []float64) []series.Record {
	out := make([]series.Record, len(dates))
	for i, d := range dates {
		out[i] = series.Record{Date: d, Rates: map[string]float64{name: rates[i]}}
	}
	return out
}

func TestRender_PNGSize(t *testing.T) {
	recs := records([]string{"2024-01-01", "2024-01-02", "2024-01-03"}, "Original", []float64{10, 25, 15})

	var buf bytes.Buffer
	err := chart.Render(&buf, recs, []string{"Original"}, chart.Options{Width: 600, Height: 300, Scale: 2})
	if err != nil {
		t.Fatalf("failed to render: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 1200 || img.Bounds().Dy() != 600 {
		t.Errorf("got %dx%d, want 1200x600", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestRender_LineTypesAndThemes(t *testing.T) {
	recs := records([]string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}, "A", []float64{5, 40, 38, 120})

	for _, line := range []chart.LineType{chart.Linear, chart.Smooth, chart.Area} {
		for _, theme := range []chart.Theme{chart.Light, chart.Dark} {
			var buf bytes.Buffer
			err := chart.Render(&buf, recs, []string{"A", "Missing"}, chart.Options{Line: line, Theme: theme, Format: chart.SVG})
			if err != nil {
				t.Errorf("%s/%s: failed to render: %v", line, theme, err)
				continue
			}
			if !strings.Contains(buf.String(), "<svg") {
				t.Errorf("%s/%s: output is not SVG", line, theme)
			}
		}
	}
}

// parseSVG fails the test unless the document is well-formed XML and
// returns its text content.
func parseSVG(t *testing.T, doc []byte) string {
	t.Helper()

	var text strings.Builder
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return text.String()
		}
		if err != nil {
			t.Fatalf("SVG is not well-formed: %v", err)
		}
		if cd, ok := tok.(xml.CharData); ok {
			text.Write(cd)
		}
	}
}

func TestRender_SVGEscapesNames(t *testing.T) {
	names := []string{"A & B", `<script>alert("x")</script>`, `Say "hi"`}
	recs := records([]string{"2024-01-01", "2024-01-02"}, names[0], []float64{10, 20})

	var buf bytes.Buffer
	err := chart.Render(&buf, recs, names, chart.Options{Format: chart.SVG, Title: "<b>Rates</b>"})
	if err != nil {
		t.Fatalf("failed to render: %v", err)
	}

	if strings.Contains(buf.String(), "<script>") {
		t.Error("raw markup from a series name reached the SVG")
	}

	text := parseSVG(t, buf.Bytes())
	for _, want := range append(names, "<b>Rates</b>") {
		if !strings.Contains(text, want) {
			t.Errorf("expected text %q in the SVG", want)
		}
	}
}

func TestRender_PNGKeepsNames(t *testing.T) {
	recs := records([]string{"2024-01-01", "2024-01-02"}, "A & B", []float64{10, 20})

	var buf bytes.Buffer
	if err := chart.Render(&buf, recs, []string{"A & B"}, chart.Options{}); err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Errorf("output is not a PNG: %v", err)
	}
}

func TestRender_SingleDateAllZero(t *testing.T) {
	recs := records([]string{"2024-01-01"}, "A", []float64{0})

	var buf bytes.Buffer
	if err := chart.Render(&buf, recs, []string{"A"}, chart.Options{Line: chart.Smooth}); err != nil {
		t.Errorf("single all-zero record should render, got %v", err)
	}
}

func TestRender_Errors(t *testing.T) {
	var buf bytes.Buffer

	if err := chart.Render(&buf, nil, []string{"A"}, chart.Options{}); !errors.Is(err, chart.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}

	recs := records([]string{"2024-01-01"}, "A", []float64{1})
	if err := chart.Render(&buf, recs, nil, chart.Options{}); !errors.Is(err, chart.ErrNoSeries) {
		t.Errorf("expected ErrNoSeries, got %v", err)
	}

	bad := records([]string{"soon"}, "A", []float64{1})
	if err := chart.Render(&buf, bad, []string{"A"}, chart.Options{}); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestParseOptions(t *testing.T) {
	if l, err := chart.ParseLineType(""); err != nil || l != chart.Linear {
		t.Errorf("empty line type: got %q, %v", l, err)
	}
	if _, err := chart.ParseLineType("dotted"); !errors.Is(err, chart.ErrInvalidOption) {
		t.Errorf("expected ErrInvalidOption, got %v", err)
	}
	if th, err := chart.ParseTheme("dark"); err != nil || th != chart.Dark {
		t.Errorf("dark theme: got %q, %v", th, err)
	}
	if chart.Dark.Toggle() != chart.Light || chart.Light.Toggle() != chart.Dark {
		t.Error("Toggle should swap themes")
	}
	if f, err := chart.ParseFormat("svg"); err != nil || f.ContentType() != "image/svg+xml" {
		t.Errorf("svg format: got %q, %v", f, err)
	}
}

func TestSeriesColor_Wraps(t *testing.T) {
	if chart.SeriesColor(0) != "3877EE" || chart.SeriesColor(4) != "3877EE" || chart.SeriesColor(5) != "EF5DA8" {
		t.Error("colors should cycle through the palette")
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 15, 4, 0, 0, time.UTC)
	if got := chart.ExportFilename(now, chart.PNG); got != "ab-test-chart-2024-03-09.png" {
		t.Errorf("got %s", got)
	}
}
