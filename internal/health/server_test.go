package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testStatus() map[string]any {
	return map[string]any{
		"tracked_markets":       42,
		"edge_markets":          7,
		"alerts_today":          3,
		"last_check":            "2025-03-10T12:00:00Z",
		"uptime_seconds":        120.0,
		"poll_interval_seconds": 180.0,
		"initial_scan_done":     true,
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestHandleRoot(t *testing.T) {
	s := New(0, testStatus)

	rec := httptest.NewRecorder()
	s.handleRoot(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["service"] != "edgewatch" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestHandleRootUnknownPath(t *testing.T) {
	s := New(0, testStatus)

	rec := httptest.NewRecorder()
	s.handleRoot(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s := New(0, testStatus)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "healthy" {
		t.Errorf("unexpected health status %v", body["status"])
	}
	if body["tracked_markets"] != float64(42) {
		t.Errorf("unexpected tracked_markets %v", body["tracked_markets"])
	}
	if _, ok := body["timestamp"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestHandleHealthProviderFailure(t *testing.T) {
	s := New(0, func() map[string]any { panic("status backend down") })

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "unhealthy" {
		t.Errorf("unexpected status %v", body["status"])
	}
	if _, ok := body["error"]; !ok {
		t.Error("missing error field")
	}
}

func TestHandleMetrics(t *testing.T) {
	s := New(0, testStatus)

	rec := httptest.NewRecorder()
	s.handleMetrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["edge_markets"] != float64(7) {
		t.Errorf("unexpected edge_markets %v", body["edge_markets"])
	}
	if body["alerts_sent_today"] != float64(3) {
		t.Errorf("unexpected alerts_sent_today %v", body["alerts_sent_today"])
	}
	if body["initial_scan_done"] != true {
		t.Errorf("unexpected initial_scan_done %v", body["initial_scan_done"])
	}
}
