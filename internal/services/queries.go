package services

import (
	"errors"
	"fmt"
	"time"

	"superstore-dashboard/internal/aggregate"
	"superstore-dashboard/internal/charts"
	"superstore-dashboard/internal/forecast"
	"superstore-dashboard/internal/kpi"
	"superstore-dashboard/internal/memo"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
)

// AllYears scopes a query to the whole dataset.
const AllYears = 0

var ErrUnknownPeriod = errors.New("unknown seasonal period")

func cached[T any](a *Analytics, ds *models.Dataset, fn string, compute func() (T, error), args ...any) (T, error) {
	return memo.Do(a.cache, memo.Key{Fn: fn, Dataset: ds.Fingerprint, Args: args}, compute)
}

func inScope(ds *models.Dataset, year int) []models.OrderRecord {
	if year == AllYears {
		return ds.Records
	}
	return ds.ForYear(year)
}

func checkYear(ds *models.Dataset, year int) error {
	if year != AllYears && !ds.HasYear(year) {
		return fmt.Errorf("%w: %d", kpi.ErrUnknownYear, year)
	}
	return nil
}

// GroupedStats sums every metric per value of groupBy, ascending by sortBy.
func (a *Analytics) GroupedStats(groupBy models.Dimension, sortBy models.Metric, year int) ([]models.GroupedStat, error) {
	return a.groupedStats(a.snapshot(), groupBy, sortBy, year)
}

func (a *Analytics) groupedStats(ds *models.Dataset, groupBy models.Dimension, sortBy models.Metric, year int) ([]models.GroupedStat, error) {
	if err := checkYear(ds, year); err != nil {
		return nil, err
	}
	return cached(a, ds, "grouped_stats", func() ([]models.GroupedStat, error) {
		return aggregate.GroupedStats(inScope(ds, year), groupBy, sortBy), nil
	}, groupBy, sortBy, year)
}

// Top returns the n highest rows of GroupedStats, highest last.
func (a *Analytics) Top(groupBy models.Dimension, metric models.Metric, year, n int) ([]models.GroupedStat, error) {
	return a.top(a.snapshot(), groupBy, metric, year, n)
}

func (a *Analytics) top(ds *models.Dataset, groupBy models.Dimension, metric models.Metric, year, n int) ([]models.GroupedStat, error) {
	stats, err := a.groupedStats(ds, groupBy, metric, year)
	if err != nil {
		return nil, err
	}
	return aggregate.Top(stats, n), nil
}

func (a *Analytics) PercentChange(groupBy models.Dimension, metric models.Metric) []models.PercentChangeRow {
	ds := a.snapshot()
	rows, _ := cached(a, ds, "percent_change", func() ([]models.PercentChangeRow, error) {
		return aggregate.PercentChange(ds.Records, groupBy, metric), nil
	}, groupBy, metric)
	return rows
}

// YearlyChanges is the per-year change table across all four metrics.
func (a *Analytics) YearlyChanges() []models.YearlyChange {
	ds := a.snapshot()
	rows, _ := cached(a, ds, "yearly_changes", func() ([]models.YearlyChange, error) {
		return aggregate.YearlyChanges(ds.Records), nil
	})
	return rows
}

func (a *Analytics) Summary() kpi.Summary {
	return a.summary(a.snapshot())
}

func (a *Analytics) summary(ds *models.Dataset) kpi.Summary {
	s, _ := cached(a, ds, "summary", func() (kpi.Summary, error) {
		return kpi.Compute(ds.Records), nil
	})
	return s
}

func (a *Analytics) YearSummary(year int) (kpi.YearSummary, error) {
	return a.yearSummary(a.snapshot(), year)
}

func (a *Analytics) yearSummary(ds *models.Dataset, year int) (kpi.YearSummary, error) {
	return cached(a, ds, "year_summary", func() (kpi.YearSummary, error) {
		return kpi.ForYear(ds.Records, year)
	}, year)
}

func (a *Analytics) MonthlySales() models.MonthlySeries {
	return a.monthlySales(a.snapshot())
}

func (a *Analytics) monthlySales(ds *models.Dataset) models.MonthlySeries {
	s, _ := cached(a, ds, "monthly_sales", func() (models.MonthlySeries, error) {
		return aggregate.MonthlySales(ds.Records), nil
	})
	return s
}

// Forecast fits the sales model once per dataset and returns the
// prediction for the months after the last observation.
func (a *Analytics) Forecast() (models.Forecast, error) {
	return a.fitForecast(a.snapshot())
}

func (a *Analytics) fitForecast(ds *models.Dataset) (models.Forecast, error) {
	return cached(a, ds, "forecast", func() (models.Forecast, error) {
		series := a.monthlySales(ds)
		start := time.Now()
		fc, err := forecast.Forecast(series, a.order, a.horizon)
		observability.RecordForecastFit(time.Since(start))
		if err != nil {
			a.logger.Warn("forecast unavailable", "model", a.order.String(), "months", len(series), "error", err)
			return models.Forecast{}, err
		}
		a.logger.Info("forecast fitted",
			"model", fc.Model,
			"months", fc.Observations,
			"ar", fc.Params.AR,
			"seasonal_ar", fc.Params.SeasonalAR,
			"duration", time.Since(start),
		)
		return fc, nil
	}, a.order.String(), a.horizon)
}

// Choropleth is total sales per state over the whole dataset.
func (a *Analytics) Choropleth() models.ChartSpec {
	return a.choropleth(a.snapshot())
}

func (a *Analytics) choropleth(ds *models.Dataset) models.ChartSpec {
	spec, _ := cached(a, ds, "choropleth", func() (models.ChartSpec, error) {
		return charts.Choropleth(ds.Records), nil
	})
	return spec
}

// SeasonalPlot renders the month or quarter seasonal plot as PNG.
func (a *Analytics) SeasonalPlot(period string) ([]byte, error) {
	ds := a.snapshot()
	switch period {
	case "month":
		return cached(a, ds, "month_plot", func() ([]byte, error) {
			return charts.MonthPlot(a.monthlySales(ds))
		})
	case "quarter":
		return cached(a, ds, "quarter_plot", func() ([]byte, error) {
			return charts.QuarterPlot(aggregate.QuarterlySales(a.monthlySales(ds)))
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
	}
}

func (a *Analytics) categoryHistogram(ds *models.Dataset, d models.Dimension, ind models.Indicator) models.ChartSpec {
	spec, _ := cached(a, ds, "histogram", func() (models.ChartSpec, error) {
		return charts.CategoryHistogram(ds.Records, d, ind), nil
	}, d, ind)
	return spec
}

func (a *Analytics) categoryPie(ds *models.Dataset, year int, d models.Dimension, ind models.Indicator) models.ChartSpec {
	spec, _ := cached(a, ds, "pie", func() (models.ChartSpec, error) {
		return charts.CategoryPie(ds.ForYear(year), d, ind), nil
	}, year, d, ind)
	return spec
}
