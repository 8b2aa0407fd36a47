package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/ratechart/ratechart/internal/chart"
	"github.com/ratechart/ratechart/internal/dashboard"
	"github.com/ratechart/ratechart/internal/format"
	"github.com/ratechart/ratechart/internal/series"
)

// Dashboard template data structures
type layoutData struct {
	Title   string
	Theme   string
	CSS     template.CSS
	Content template.HTML
}

type option struct {
	Label  string
	URL    string
	Active bool
}

type variationOption struct {
	Name      string
	Color     string
	Selected  bool
	Locked    bool
	ToggleURL string
}

type tableRow struct {
	Date  string
	Cells []string
}

type chartData struct {
	Label        string
	Variations   []variationOption
	SelectAllURL string
	SelectOneURL string
	Ranges       []option
	Lines        []option
	ThemeURL     string
	ThemeLabel   string
	ExportURL    string
	Chart        template.HTML
	Headers      []string
	Rows         []tableRow
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	v, err := s.parseView(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Actions are applied once, then the URL is cleaned up
	if q := r.URL.Query(); q.Get("toggle") != "" || q.Get("select") != "" {
		http.Redirect(w, r, v.link("/dashboard"), http.StatusFound)
		return
	}

	selected := v.Selected.Names()
	records, err := series.Build(s.data, v.Range, selected)
	if err != nil {
		http.Error(w, "Failed to build series", http.StatusInternalServerError)
		return
	}

	data := chartData{
		Label:        v.Selected.Label(s.names),
		SelectAllURL: "/dashboard?" + withParam(v, "select", "all"),
		SelectOneURL: "/dashboard?" + withParam(v, "select", "one"),
		Headers:      selected,
		ExportURL:    v.link("/chart.png"),
	}

	for i, name := range s.names {
		opt := variationOption{
			Name:      name,
			Selected:  v.Selected.Contains(name),
			ToggleURL: "/dashboard?" + withParam(v, "toggle", name),
		}
		opt.Locked = opt.Selected && v.Selected.Len() == 1
		if opt.Selected {
			opt.Color = "#" + chart.SeriesColor(indexOf(selected, name))
		} else {
			opt.Color = "#" + chart.SeriesColor(i)
		}
		data.Variations = append(data.Variations, opt)
	}

	for _, g := range []series.Granularity{series.Day, series.Week} {
		other := v
		other.Range = g
		data.Ranges = append(data.Ranges, option{Label: titleCase(string(g)), URL: other.link("/dashboard"), Active: g == v.Range})
	}
	for _, l := range []chart.LineType{chart.Linear, chart.Smooth, chart.Area} {
		other := v
		other.Line = l
		data.Lines = append(data.Lines, option{Label: titleCase(string(l)), URL: other.link("/dashboard"), Active: l == v.Line})
	}

	toggled := v
	toggled.Theme = v.Theme.Toggle()
	data.ThemeURL = toggled.link("/dashboard")
	data.ThemeLabel = titleCase(string(toggled.Theme))

	for _, rec := range records {
		row := tableRow{Date: rec.Date}
		for _, name := range selected {
			row.Cells = append(row.Cells, format.Percent(rec.Rate(name)))
		}
		data.Rows = append(data.Rows, row)
	}

	if len(records) > 0 {
		svg, err := s.renderChart(v, chart.Options{Line: v.Line, Theme: v.Theme, Format: chart.SVG})
		if err != nil {
			http.Error(w, "Failed to render chart", http.StatusInternalServerError)
			return
		}
		data.Chart = template.HTML(svg)
	}

	s.renderDashboard(w, "A/B Test Conversion Rates", v.Theme, "chart.html", data)
}

// withParam encodes the view plus one action parameter.
func withParam(v view, key, value string) string {
	q := v.query()
	q.Set(key, value)
	return q.Encode()
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return 0
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func (s *Server) renderDashboard(w http.ResponseWriter, title string, theme chart.Theme, contentTemplate string, data interface{}) {
	// Load CSS
	cssBytes, err := dashboard.Assets.ReadFile("assets/style.css")
	if err != nil {
		http.Error(w, "Failed to load styles", http.StatusInternalServerError)
		return
	}

	// Load and execute content template
	contentTmplBytes, err := dashboard.Templates.ReadFile("templates/" + contentTemplate)
	if err != nil {
		http.Error(w, "Failed to load template", http.StatusInternalServerError)
		return
	}

	contentTmpl, err := template.New("content").Parse(string(contentTmplBytes))
	if err != nil {
		http.Error(w, "Failed to parse template", http.StatusInternalServerError)
		return
	}

	var contentBuf bytes.Buffer
	if err := contentTmpl.Execute(&contentBuf, data); err != nil {
		http.Error(w, fmt.Sprintf("Failed to render template: %v", err), http.StatusInternalServerError)
		return
	}

	// Load and execute layout template
	layoutTmplBytes, err := dashboard.Templates.ReadFile("templates/layout.html")
	if err != nil {
		http.Error(w, "Failed to load layout", http.StatusInternalServerError)
		return
	}

	layoutTmpl, err := template.New("layout").Parse(string(layoutTmplBytes))
	if err != nil {
		http.Error(w, "Failed to parse layout", http.StatusInternalServerError)
		return
	}

	layoutData := layoutData{
		Title:   title,
		Theme:   string(theme),
		CSS:     template.CSS(cssBytes),
		Content: template.HTML(contentBuf.String()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := layoutTmpl.Execute(w, layoutData); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}
