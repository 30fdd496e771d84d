package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "superstore_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "superstore_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
		[]string{"method", "route"},
	)

	dashboardRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "superstore_dashboard_renders_total",
			Help: "Total number of dashboard views rendered",
		},
		[]string{"view"},
	)

	memoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "superstore_memo_lookups_total",
			Help: "Memoized computation lookups by result",
		},
		[]string{"fn", "result"},
	)

	forecastFitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "superstore_forecast_fit_duration_seconds",
			Help:    "Time spent fitting the sales forecast model",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)

	loaderRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "superstore_loader_rows_total",
			Help: "Rows read from the orders CSV",
		},
		[]string{"outcome"},
	)
)

func RecordRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRender counts a dashboard render; view is "overview" or "year".
func RecordRender(view string) {
	dashboardRenders.WithLabelValues(view).Inc()
}

func RecordMemoLookup(fn string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	memoLookups.WithLabelValues(fn, result).Inc()
}

func RecordForecastFit(duration time.Duration) {
	forecastFitDuration.Observe(duration.Seconds())
}

func RecordRowsLoaded(loaded, unmappedStates int) {
	loaderRows.WithLabelValues("loaded").Add(float64(loaded))
	loaderRows.WithLabelValues("unmapped_state").Add(float64(unmappedStates))
}
