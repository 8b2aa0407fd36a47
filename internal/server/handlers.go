package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ratechart/ratechart/internal/chart"
	"github.com/ratechart/ratechart/internal/selection"
	"github.com/ratechart/ratechart/internal/series"
)

// view is the chart state carried in the query string.
type view struct {
	Range    series.Granularity
	Line     chart.LineType
	Theme    chart.Theme
	Selected *selection.Selection
}

// parseView reads range, line, theme and variations. Dashboard actions
// (toggle, select) are applied on top of the parsed selection.
func (s *Server) parseView(r *http.Request) (view, error) {
	q := r.URL.Query()

	g, err := series.ParseGranularity(q.Get("range"))
	if err != nil {
		return view{}, err
	}
	line, err := chart.ParseLineType(q.Get("line"))
	if err != nil {
		return view{}, err
	}
	theme, err := chart.ParseTheme(q.Get("theme"))
	if err != nil {
		return view{}, err
	}

	sel := selection.Parse(q["variations"])
	if sel.Len() == 0 {
		sel = selection.Default(s.names)
	}

	if name := q.Get("toggle"); name != "" {
		sel.Toggle(name)
	}
	switch q.Get("select") {
	case "all":
		sel.SelectAll(s.names)
	case "one":
		if len(s.names) > 0 {
			sel.SelectOne(s.names[0])
		}
	}

	return view{Range: g, Line: line, Theme: theme, Selected: sel}, nil
}

// query encodes the view; the zero-value fields are left out.
func (v view) query() url.Values {
	q := url.Values{}
	if v.Range != series.Day {
		q.Set("range", string(v.Range))
	}
	if v.Line != chart.Linear {
		q.Set("line", string(v.Line))
	}
	if v.Theme != chart.Light {
		q.Set("theme", string(v.Theme))
	}
	if v.Selected.Len() > 0 {
		q.Set("variations", v.Selected.String())
	}
	return q
}

func (v view) link(path string) string {
	if q := v.query().Encode(); q != "" {
		return path + "?" + q
	}
	return path
}

type HealthResponse struct {
	Status        string `json:"status"`
	Variations    int    `json:"variations"`
	Days          int    `json:"days"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:        "ok",
		Variations:    len(s.data.Variations),
		Days:          len(s.data.Data),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}

	writeJSON(w, response)
}

type variationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleVariations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := make([]variationResponse, len(s.data.Variations))
	for i, v := range s.data.Variations {
		response[i] = variationResponse{ID: v.Key(), Name: v.Name}
	}

	writeJSON(w, response)
}

// handleSeries returns the chart rows for the requested range and variations.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	v, err := s.parseView(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := series.Build(s.data, v.Range, v.Selected.Names())
	if err != nil {
		http.Error(w, "Failed to build series", http.StatusInternalServerError)
		return
	}

	writeJSON(w, records)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	v, err := s.parseView(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	format := chart.PNG
	if strings.HasSuffix(r.URL.Path, ".svg") {
		format = chart.SVG
	}

	opts := chart.Options{Line: v.Line, Theme: v.Theme, Format: format}
	if format == chart.PNG {
		opts.Scale = chart.ExportScale
	}

	body, err := s.renderChart(v, opts)
	if errors.Is(err, chart.ErrNoData) || errors.Is(err, chart.ErrNoSeries) {
		http.Error(w, "No data to chart", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format == chart.PNG {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", chart.ExportFilename(s.now(), format)))
	}
	w.Write(body)
}

// renderChart rebuilds the series for v and draws them.
func (s *Server) renderChart(v view, opts chart.Options) ([]byte, error) {
	selected := v.Selected.Names()
	records, err := series.Build(s.data, v.Range, selected)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, records, selected, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
