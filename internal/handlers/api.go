package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"superstore-dashboard/internal/charts"
	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/forecast"
	"superstore-dashboard/internal/kpi"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
)

const cacheControl = "public, max-age=300"

var cacheHeaders = map[string]string{"Cache-Control": cacheControl}

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// writeError maps domain errors onto API error codes.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case stderrors.Is(err, forecast.ErrInsufficientHistory):
		err = errors.InsufficientData(err, "not enough monthly history to fit the forecast model")
	case stderrors.Is(err, charts.ErrNoData):
		err = errors.InsufficientData(err, "no sales to plot")
	case stderrors.Is(err, services.ErrInvalidNavigation),
		stderrors.Is(err, services.ErrUnknownPeriod),
		stderrors.Is(err, models.ErrUnknownDimension),
		stderrors.Is(err, models.ErrUnknownMetric),
		stderrors.Is(err, kpi.ErrUnknownYear):
		err = errors.Validation(err)
	}
	errors.WriteError(w, logger, err, observability.GetRequestID(r.Context()))
}

// navigationFromQuery reads ?view=&indicator=&top_products=&top_customers=.
func navigationFromQuery(r *http.Request) models.NavigationState {
	q := r.URL.Query()
	state := models.NavigationState{
		View:      q.Get("view"),
		Indicator: models.Indicator(q.Get("indicator")),
	}
	state.ShowTopProducts, _ = strconv.ParseBool(q.Get("top_products"))
	state.ShowTopCustomers, _ = strconv.ParseBool(q.Get("top_customers"))
	return state
}

func yearFromQuery(r *http.Request) (int, error) {
	v := r.URL.Query().Get("year")
	if v == "" {
		return services.AllYears, nil
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.BadRequestWrap(err, "year must be an integer")
	}
	return year, nil
}

func (h *APIHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	view, err := h.analytics.Render(r.Context(), navigationFromQuery(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, view, cacheHeaders)
}

// HandleKPIs returns whole-period KPIs, or one year's KPIs with deltas
// when ?year= is set.
func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	year, err := yearFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if year == services.AllYears {
		errors.WriteSuccessWithHeaders(w, h.analytics.Summary(), cacheHeaders)
		return
	}

	ys, err := h.analytics.YearSummary(year)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, ys, cacheHeaders)
}

func (h *APIHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	data := h.analytics.MonthlySales()
	if data == nil {
		data = models.MonthlySeries{}
	}

	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	fc, err := h.analytics.Forecast()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, fc, cacheHeaders)
}

// HandleGroupedStats serves ?by=&sort=&year=&limit=. With limit set only
// the highest rows are returned.
func (h *APIHandlers) HandleGroupedStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	groupBy, err := models.ParseDimension(valueOr(q.Get("by"), string(models.DimCategory)))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	sortBy, err := models.ParseMetric(valueOr(q.Get("sort"), string(models.MetricSales)))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	year, err := yearFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	stats, err := h.analytics.GroupedStats(groupBy, sortBy, year)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeError(w, r, h.logger, errors.BadRequest("limit must be a positive integer"))
			return
		}
		stats, _ = h.analytics.Top(groupBy, sortBy, year, limit)
	}

	errors.WriteSuccessWithHeaders(w, stats, cacheHeaders)
}

// HandlePercentChange serves ?by=&metric=. Without by it returns the
// per-year table across all metrics.
func (h *APIHandlers) HandlePercentChange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("by") == "" {
		errors.WriteSuccessWithHeaders(w, h.analytics.YearlyChanges(), cacheHeaders)
		return
	}

	groupBy, err := models.ParseDimension(q.Get("by"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	metric, err := models.ParseMetric(valueOr(q.Get("metric"), string(models.MetricSales)))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.PercentChange(groupBy, metric), cacheHeaders)
}

func (h *APIHandlers) HandleChoropleth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.Choropleth(), cacheHeaders)
}

// HandleSeasonalPlot serves /charts/seasonal/{file} where file is
// month.png or quarter.png.
func (h *APIHandlers) HandleSeasonalPlot(w http.ResponseWriter, r *http.Request) {
	period := strings.TrimSuffix(r.PathValue("file"), ".png")

	png, err := h.analytics.SeasonalPlot(period)
	if err != nil {
		if stderrors.Is(err, services.ErrUnknownPeriod) {
			writeError(w, r, h.logger, errors.NotFound("no seasonal plot for "+strconv.Quote(period)))
			return
		}
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", cacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	_, _ = w.Write(png)
}

// HandleHealth reports unavailable until a dataset with at least one
// order year is loaded.
func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	years := h.analytics.Years()
	if len(years) == 0 {
		writeError(w, r, h.logger, errors.ServiceUnavailable("no orders loaded"))
		return
	}
	healthData := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"years":     years,
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
