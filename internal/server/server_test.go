package server_test

import (
	"encoding/json"
	"encoding/xml"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ratechart/ratechart/internal/server"
	"github.com/ratechart/ratechart/internal/testutil"
)

func setupTestServer(t *testing.T) *server.Server {
	t.Helper()
	return server.New(testutil.SampleDataset(), 0, "")
}

func get(t *testing.T, srv *server.Server, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv := setupTestServer(t)

	w := get(t, srv, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp server.HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Variations != 3 || resp.Days != 3 {
		t.Errorf("unexpected health response: %+v", resp)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestVariationsAPI(t *testing.T) {
	srv := setupTestServer(t)

	w := get(t, srv, "/api/variations")

	var variations []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(w.Body).Decode(&variations); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(variations) != 3 {
		t.Fatalf("expected 3 variations, got %d", len(variations))
	}
	if variations[0].ID != "0" || variations[0].Name != "Original" {
		t.Errorf("expected Original with sentinel id, got %+v", variations[0])
	}
}

func decodeRows(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()

	var rows []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rows
}

func TestSeriesAPI_DefaultSelection(t *testing.T) {
	srv := setupTestServer(t)

	w := get(t, srv, "/api/series")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	rows := decodeRows(t, w)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	first := rows[0]
	if first["date"] != "2024-01-01" {
		t.Errorf("expected first date 2024-01-01, got %v", first["date"])
	}
	if first["Original"] != 25.0 {
		t.Errorf("expected Original 25, got %v", first["Original"])
	}
	if len(first) != 2 {
		t.Errorf("expected only date and Original, got %v", first)
	}
}

func TestSeriesAPI_Weekly(t *testing.T) {
	srv := setupTestServer(t)

	w := get(t, srv, "/api/series?range=week&variations=Original,Variation+B")
	rows := decodeRows(t, w)

	if len(rows) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(rows))
	}
	if rows[0]["date"] != "2023-12-31" || rows[1]["date"] != "2024-01-07" {
		t.Errorf("unexpected week keys: %v, %v", rows[0]["date"], rows[1]["date"])
	}
	if math.Abs(rows[0]["Original"].(float64)-20) > 1e-9 {
		t.Errorf("expected Original 20, got %v", rows[0]["Original"])
	}
	if math.Abs(rows[0]["Variation B"].(float64)-14) > 1e-9 {
		t.Errorf("expected Variation B 14, got %v", rows[0]["Variation B"])
	}
}

func TestSeriesAPI_BadRequests(t *testing.T) {
	srv := setupTestServer(t)

	if w := get(t, srv, "/api/series?range=month"); w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for bad range, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/series", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestChartPNG(t *testing.T) {
	srv := setupTestServer(t)

	w := get(t, srv, "/chart.png?variations=Original,Variation+A&line=smooth&theme=dark")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != "image/png" {
		t.Errorf("expected image/png, got %s", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "ab-test-chart-") {
		t.Errorf("expected export filename, got %s", w.Header().Get("Content-Disposition"))
	}
	if _, err := png.Decode(w.Body); err != nil {
		t.Errorf("body is not a PNG: %v", err)
	}
}

func TestChartSVG(t *testing.T) {
	srv := setupTestServer(t)

	w := get(t, srv, "/chart.svg?range=week&line=area")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<svg") {
		t.Error("expected SVG body")
	}
}

func TestChartSVG_NamesAreEscaped(t *testing.T) {
	srv := setupTestServer(t)
	payload := `<script>alert("x")</script>`

	w := get(t, srv, "/chart.svg?variations="+url.QueryEscape("Original,A & B,"+payload))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<script>") {
		t.Fatal("variation name was written into the SVG unescaped")
	}

	dec := xml.NewDecoder(w.Body)
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("SVG is not well-formed: %v", err)
		}
	}
}

func TestChart_BadLineType(t *testing.T) {
	srv := setupTestServer(t)

	if w := get(t, srv, "/chart.png?line=dotted"); w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestDashboard_Unauthorized(t *testing.T) {
	srv := setupTestServer(t)

	if w := get(t, srv, "/dashboard"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
	if w := get(t, srv, "/dashboard?token=wrongtoken"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestDashboard_ValidToken(t *testing.T) {
	srv := setupTestServer(t)

	w := get(t, srv, "/dashboard?token="+srv.Token())
	if w.Code != http.StatusFound {
		t.Errorf("expected status 302 (redirect), got %d", w.Code)
	}

	var tokenCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "rc_token" {
			tokenCookie = c
			break
		}
	}
	if tokenCookie == nil {
		t.Error("expected rc_token cookie to be set")
	}
}

func TestDashboard_WithCookie(t *testing.T) {
	srv := setupTestServer(t)
	cookie := &http.Cookie{Name: "rc_token", Value: srv.Token()}

	w := get(t, srv, "/dashboard?variations=Original,Variation+A", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if !strings.Contains(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("expected HTML content type, got %s", w.Header().Get("Content-Type"))
	}

	body := w.Body.String()
	for _, want := range []string{"2 selected", "Variation B", "25.00%", "<svg", "Export PNG"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
}

func TestDashboard_NamesAreEscaped(t *testing.T) {
	srv := setupTestServer(t)
	cookie := &http.Cookie{Name: "rc_token", Value: srv.Token()}

	w := get(t, srv, "/dashboard?variations="+url.QueryEscape(`Original,<script>alert(1)</script>`), cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<script>alert(1)</script>") {
		t.Error("variation name was written into the page unescaped")
	}
}

func TestDashboard_ToggleRedirects(t *testing.T) {
	srv := setupTestServer(t)
	cookie := &http.Cookie{Name: "rc_token", Value: srv.Token()}

	w := get(t, srv, "/dashboard?toggle=Variation+A", cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", w.Code)
	}

	loc := w.Header().Get("Location")
	if !strings.Contains(loc, "Original%2CVariation+A") {
		t.Errorf("expected toggled selection in redirect, got %s", loc)
	}
	if strings.Contains(loc, "toggle=") {
		t.Errorf("redirect should drop the action, got %s", loc)
	}
}

func TestDashboard_SelectAll(t *testing.T) {
	srv := setupTestServer(t)
	cookie := &http.Cookie{Name: "rc_token", Value: srv.Token()}

	w := get(t, srv, "/dashboard?select=all&theme=dark", cookie)
	loc := w.Header().Get("Location")
	if !strings.Contains(loc, "Variation+B") || !strings.Contains(loc, "theme=dark") {
		t.Errorf("unexpected redirect %s", loc)
	}
}

func TestDashboard_Logout(t *testing.T) {
	srv := setupTestServer(t)
	cookie := &http.Cookie{Name: "rc_token", Value: srv.Token()}

	w := get(t, srv, "/dashboard?logout=1&range=week", cookie)
	if w.Code != http.StatusFound {
		t.Errorf("expected status 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("expected redirect to /dashboard, got %s", loc)
	}

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "rc_token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected rc_token cookie to be cleared")
	}
}

func TestDashboard_LogoutWithoutSession(t *testing.T) {
	srv := setupTestServer(t)

	if w := get(t, srv, "/dashboard?logout=1"); w.Code != http.StatusFound {
		t.Errorf("expected status 302 for logout without a cookie, got %d", w.Code)
	}
}

func TestDashboard_TokenRedirectKeepsView(t *testing.T) {
	srv := setupTestServer(t)

	w := get(t, srv, "/dashboard?range=week&token="+srv.Token())
	if w.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/dashboard?range=week" {
		t.Errorf("expected token dropped from redirect, got %s", loc)
	}
}
