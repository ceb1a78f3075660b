package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandler_nilMetrics(t *testing.T) {
	var m *Metrics
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	m.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if got := rr.Body.String(); !strings.Contains(got, "metrics unavailable") {
		t.Fatalf("expected body to mention metrics unavailable, got %q", got)
	}
}

func TestNilMetrics_methodsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveHTTPRequest(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)
	m.ObserveFetch("ok", time.Millisecond)
	m.ViewMounted()
	m.ViewUnmounted()
	m.IncRefreshTrigger("mqtt")
}

func TestHandler_exposesRegisteredMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodGet, "/readyz", http.StatusOK, 12*time.Millisecond)
	m.ObserveFetch("ok", 120*time.Millisecond)
	m.ObserveFetch("stale", 80*time.Millisecond)
	m.ViewMounted()
	m.ViewMounted()
	m.ViewUnmounted()
	m.IncRefreshTrigger("mqtt")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	m.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := rr.Body.String()
	if !strings.Contains(body, "floorwatch_http_requests_total{method=\"GET\",path=\"/readyz\",status=\"200\"} 1") {
		t.Fatalf("expected labeled request counter to be incremented; body=%s", body)
	}
	if !strings.Contains(body, "floorwatch_floor_fetches_total{outcome=\"ok\"} 1") {
		t.Fatalf("expected ok fetch counter to be incremented; body=%s", body)
	}
	if !strings.Contains(body, "floorwatch_floor_fetches_total{outcome=\"stale\"} 1") {
		t.Fatalf("expected stale fetch counter to be incremented; body=%s", body)
	}
	if !strings.Contains(body, "floorwatch_floor_fetch_duration_seconds_count{outcome=\"ok\"} 1") {
		t.Fatalf("expected fetch duration histogram to have one observation; body=%s", body)
	}
	if !strings.Contains(body, "floorwatch_mounted_views 1") {
		t.Fatalf("expected mounted views gauge at 1; body=%s", body)
	}
	if !strings.Contains(body, "floorwatch_refresh_triggers_total{source=\"mqtt\"} 1") {
		t.Fatalf("expected mqtt refresh trigger counted; body=%s", body)
	}
}
