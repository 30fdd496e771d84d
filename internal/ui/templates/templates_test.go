package templates

import (
	"context"
	"encoding/json"
	"html"
	"regexp"
	"strings"
	"testing"

	"superstore-dashboard/internal/models"
)

func testView() *models.DashboardView {
	up, undefined := models.DefinedDelta(12.5), models.UndefinedDelta()
	return &models.DashboardView{
		State:   models.NavigationState{View: "2016", Indicator: models.IndicatorSales, ShowTopProducts: true},
		Title:   "Key metrics",
		Caption: "Changes compare 2016 with 2015.",
		Options: []models.ViewOption{
			{Value: models.ViewOverview, Label: "General"},
			{Value: "2015", Label: "2015"},
			{Value: "2016", Label: "2016", Selected: true},
		},
		Indicators: models.Indicators(),
		KPIs: []models.KPICard{
			{Label: "Total Sales", Value: "$ 1.2M", Delta: &up},
			{Label: "Net Profit", Value: "$ 0", Delta: &undefined},
		},
		Sections: []models.Section{
			{Heading: "1. Monthly sales", Panels: []models.Panel{
				{ID: "year-monthly", Chart: &models.ChartSpec{ID: "year-monthly", Kind: models.ChartLine, Title: "Monthly <sales>"}},
				{ID: "seasonal-month", Heading: "Month plot", Image: "/charts/seasonal/month.png"},
				{ID: "forecast", Error: "Forecast unavailable: insufficient history"},
			}},
		},
	}
}

func TestContent(t *testing.T) {
	var sb strings.Builder
	if err := Content(testView()).Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	body := sb.String()

	if !strings.HasPrefix(body, `<div id="content">`) {
		t.Errorf("content should be rooted at #content, got %.40q", body)
	}

	for _, want := range []string{
		"Key metrics",
		"Changes compare 2016 with 2015.",
		`<div class="delta up">12.50%</div>`,
		`<div class="delta none">undefined</div>`,
		`id="chart-year-monthly"`,
		`src="/charts/seasonal/month.png"`,
		`<div class="panel-error">Forecast unavailable: insufficient history</div>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("content missing %q", want)
		}
	}
	if strings.Contains(body, "<sales>") {
		t.Error("chart titles must not be injected into markup")
	}
}

func TestDashboard(t *testing.T) {
	var sb strings.Builder
	if err := Dashboard(testView()).Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	body := sb.String()

	for _, want := range []string{
		"<!doctype html>",
		"Superstore Sales Dashboard",
		plotlyURL,
		datastarURL,
		`value="2016" data-bind="view" checked`,
		`<option value="sales" selected>Sales</option>`,
		"/sse/view",
		`<div id="content">`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	m := regexp.MustCompile(`data-signals="([^"]*)"`).FindStringSubmatch(body)
	if m == nil {
		t.Fatal("page should carry initial signals")
	}
	var signals Signals
	if err := json.Unmarshal([]byte(html.UnescapeString(m[1])), &signals); err != nil {
		t.Fatalf("signals are not JSON: %v", err)
	}
	if signals.View != "2016" || signals.Indicator != models.IndicatorSales || !signals.ShowTopProducts {
		t.Errorf("signals = %+v", signals)
	}
	if _, ok := signals.Charts["year-monthly"]; !ok {
		t.Error("signals should carry the chart specs")
	}
}

func TestContent_EscapesAndVariants(t *testing.T) {
	down := models.DefinedDelta(-3.25)
	view := &models.DashboardView{
		Title: `<script>alert("x")</script>`,
		KPIs:  []models.KPICard{{Label: "Net Profit", Value: "$ 10k", Delta: &down}},
		Sections: []models.Section{{Heading: "Map", Panels: []models.Panel{
			{ID: "choropleth", Wide: true, Chart: &models.ChartSpec{ID: "choropleth", Kind: models.ChartChoropleth}},
		}}},
	}

	var sb strings.Builder
	if err := Content(view).Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	body := sb.String()

	if strings.Contains(body, "<script>") {
		t.Error("title must be escaped")
	}
	for _, want := range []string{
		"&lt;script&gt;",
		`<div class="delta down">-3.25%</div>`,
		`<div class="panel wide" id="panel-choropleth">`,
		`<div class="chart" id="chart-choropleth"></div>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("content missing %q", want)
		}
	}
	if strings.Contains(body, `class="caption"`) {
		t.Error("empty caption should not render")
	}
}

func TestDashboard_InlinesAssets(t *testing.T) {
	var sb strings.Builder
	if err := Dashboard(testView()).Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	body := sb.String()

	for _, want := range []string{
		"<style>" + dashboardCSS + "</style>",
		"window.renderCharts = function",
		`data-effect="window.renderCharts($charts)"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %.60q", want)
		}
	}
}
