package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestNewSSEHandlers(t *testing.T) {
	analytics := createTestAnalytics(24)
	handlers := NewSSEHandlers(analytics, testLogger())

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewSSEHandlers() should set analytics field")
	}
}

func sseRequest(signals string) *http.Request {
	target := "/sse/view"
	if signals != "" {
		target += "?datastar=" + url.QueryEscape(signals)
	}
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func TestSSEHandlers_HandleView(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(24), testLogger())

	tests := []struct {
		name    string
		signals string
		want    []string
	}{
		{
			name: "no signals renders the overview",
			want: []string{"General overview", "chart-monthly-trend", "chart-hist-category"},
		},
		{
			name:    "year with top products",
			signals: `{"view":"2016","indicator":"sales","showTopProducts":true,"showTopCustomers":false}`,
			want:    []string{"Key metrics", "chart-year-monthly", "chart-pie-region", "chart-top-products"},
		},
		{
			name:    "extra signals are ignored",
			signals: `{"view":"overview","indicator":"quantity","charts":{}}`,
			want:    []string{"Units Sold", "chart-choropleth"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleView(w, sseRequest(tt.signals))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("content-type = %q, should contain text/event-stream", ct)
			}
			if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
				t.Errorf("cache-control = %q, want no-cache", cc)
			}

			body := w.Body.String()
			for _, event := range []string{"datastar-patch-elements", "datastar-patch-signals"} {
				if !strings.Contains(body, "event: "+event) {
					t.Errorf("stream missing %s event", event)
				}
			}
			if !strings.Contains(body, `<div id="content">`) {
				t.Error("stream should patch #content")
			}
			if !strings.Contains(body, `"charts":{`) {
				t.Error("stream should patch the charts signal")
			}
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("stream missing %q", want)
				}
			}
		})
	}
}

func TestSSEHandlers_HandleView_TopTogglesOff(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(24), testLogger())

	w := httptest.NewRecorder()
	h.HandleView(w, sseRequest(`{"view":"2015"}`))

	if strings.Contains(w.Body.String(), "chart-top-products") {
		t.Error("top products should stay hidden until toggled")
	}
}

func TestSSEHandlers_HandleView_Invalid(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(24), testLogger())

	tests := []struct {
		name    string
		signals string
		status  int
	}{
		{"malformed json", `{"view":`, http.StatusBadRequest},
		{"unknown year", `{"view":"1999"}`, http.StatusBadRequest},
		{"unknown indicator", `{"indicator":"margin"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleView(w, sseRequest(tt.signals))

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("errors are reported before the stream opens, got %q", ct)
			}
		})
	}
}

func TestSSEHandlers_ForecastFailureStaysInPanel(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(4), testLogger())

	w := httptest.NewRecorder()
	h.HandleView(w, sseRequest(""))

	body := w.Body.String()
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(body, "Forecast unavailable") {
		t.Error("forecast panel should report the failure")
	}
	if !strings.Contains(body, "chart-monthly-trend") {
		t.Error("other panels should still render")
	}
}
