// Package charts turns summary tables into renderer-agnostic chart specs.
// Builders are pure: the same input always yields the same spec.
package charts

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"superstore-dashboard/internal/aggregate"
	"superstore-dashboard/internal/models"
)

const (
	monthLayout = "2006-01"
	salesLabel  = "Sales ($)"
)

func monthNames() []string {
	names := make([]string, 12)
	for m := time.January; m <= time.December; m++ {
		names[m-1] = m.String()
	}
	return names
}

func years(series models.MonthlySeries) []int {
	var out []int
	for _, p := range series {
		if y := p.Month.Year(); len(out) == 0 || out[len(out)-1] != y {
			out = append(out, y)
		}
	}
	return out
}

func joinYears(ys []int) string {
	parts := make([]string, len(ys))
	for i, y := range ys {
		parts[i] = strconv.Itoa(y)
	}
	if len(parts) <= 1 {
		return strings.Join(parts, "")
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

func seriesPoints(series models.MonthlySeries) []models.ChartPoint {
	points := make([]models.ChartPoint, len(series))
	for i, p := range series {
		points[i] = models.ChartPoint{X: p.Month.Format(monthLayout), Y: p.Sales}
	}
	return points
}

// MonthlyTrend is total sales per month across the whole range.
func MonthlyTrend(series models.MonthlySeries) models.ChartSpec {
	return models.ChartSpec{
		ID:     "monthly-trend",
		Kind:   models.ChartLine,
		Title:  fmt.Sprintf("Monthly sales over the %d-year period", len(years(series))),
		XLabel: "Month and Year",
		YLabel: salesLabel,
		Series: []models.ChartSeries{{
			Name:   "Sales",
			Points: seriesPoints(series),
			Color:  "darkblue",
		}},
	}
}

// YearOverlay draws one line per year over month-name ticks, so the same
// month can be compared across years.
func YearOverlay(series models.MonthlySeries) models.ChartSpec {
	names := monthNames()
	ys := years(series)

	out := make([]models.ChartSeries, 0, len(ys))
	for i, y := range ys {
		var points []models.ChartPoint
		for _, p := range series.Year(y) {
			points = append(points, models.ChartPoint{X: names[p.Month.Month()-1], Y: p.Sales})
		}
		out = append(out, models.ChartSeries{
			Name:   strconv.Itoa(y),
			Points: points,
			Color:  yearColors[i%len(yearColors)],
		})
	}

	return models.ChartSpec{
		ID:         "year-overlay",
		Kind:       models.ChartLine,
		Title:      "Comparison of the monthly sales for " + joinYears(ys),
		XLabel:     "Month",
		YLabel:     salesLabel,
		ColorLabel: "Year",
		Markers:    true,
		Series:     out,
	}
}

// YearMonthly is the monthly sales of a single year.
func YearMonthly(series models.MonthlySeries, year int) models.ChartSpec {
	names := monthNames()
	var points []models.ChartPoint
	for _, p := range series.Year(year) {
		points = append(points, models.ChartPoint{X: names[p.Month.Month()-1], Y: p.Sales})
	}

	return models.ChartSpec{
		ID:      "year-monthly",
		Kind:    models.ChartLine,
		Title:   "Monthly sales over the year",
		XLabel:  "Month",
		YLabel:  salesLabel,
		Markers: true,
		Series:  []models.ChartSeries{{Name: strconv.Itoa(year), Points: points}},
	}
}

// ForecastChart overlays the observed series and the predicted months.
func ForecastChart(series models.MonthlySeries, fc models.Forecast) models.ChartSpec {
	predicted := make([]models.ChartPoint, len(fc.Points))
	for i, p := range fc.Points {
		predicted[i] = models.ChartPoint{X: p.Month.Format(monthLayout), Y: p.Value}
	}

	title := "Previous sales per month and forecasted sales"
	if ys := years(series); len(ys) > 0 && len(fc.Points) > 0 {
		title = fmt.Sprintf("Previous sales per month for %d - %d (in blue) and forecasted sales (in red) for %d",
			ys[0], ys[len(ys)-1], fc.Points[0].Month.Year())
	}

	return models.ChartSpec{
		ID:     "forecast",
		Kind:   models.ChartLine,
		Title:  title,
		XLabel: "Month and Year",
		YLabel: salesLabel,
		Series: []models.ChartSeries{
			{Name: "Original sales", Points: seriesPoints(series), Color: "#1f77b4"},
			{Name: "Predicted sales", Points: predicted, Color: "#d62728"},
		},
	}
}

func chartID(prefix string, d models.Dimension) string {
	return prefix + "-" + strings.ToLower(strings.ReplaceAll(string(d), "_", "-"))
}

// CategoryHistogram sums the indicator's metric per category value,
// stacked by order year.
func CategoryHistogram(records []models.OrderRecord, d models.Dimension, ind models.Indicator) models.ChartSpec {
	metric := ind.Metric()
	b := aggregate.SumByKeyAndYear(records, d, metric)
	palette := HistogramPalette(ind)

	series := make([]models.ChartSeries, 0, len(b.Years))
	for i, y := range b.Years {
		points := make([]models.ChartPoint, len(b.Keys))
		for j, k := range b.Keys {
			points[j] = models.ChartPoint{X: k, Y: b.Values[y][j]}
		}
		series = append(series, models.ChartSeries{
			Name:   strconv.Itoa(y),
			Points: points,
			Color:  palette[i%len(palette)],
		})
	}

	return models.ChartSpec{
		ID:         chartID("hist", d),
		Kind:       models.ChartHistogram,
		Title:      strings.ToUpper(string(d)),
		XLabel:     string(d),
		YLabel:     "sum of " + string(metric),
		ColorLabel: string(models.DimOrderYear),
		Stacked:    true,
		Series:     series,
		Palette:    palette,
	}
}

// CategoryPie is the share of the indicator's metric per category value.
func CategoryPie(records []models.OrderRecord, d models.Dimension, ind models.Indicator) models.ChartSpec {
	metric := ind.Metric()
	keys, values := aggregate.SumByKey(records, d, metric)

	points := make([]models.ChartPoint, len(keys))
	for i := range keys {
		points[i] = models.ChartPoint{X: keys[i], Y: values[i]}
	}

	return models.ChartSpec{
		ID:      chartID("pie", d),
		Kind:    models.ChartPie,
		Title:   strings.ToUpper(string(d)),
		Series:  []models.ChartSeries{{Name: string(metric), Points: points}},
		Palette: PiePalette(ind),
	}
}

// TopNBar is a horizontal bar chart of a grouped table, highest row last.
func TopNBar(id, title string, stats []models.GroupedStat, d models.Dimension, metric models.Metric) models.ChartSpec {
	points := make([]models.ChartPoint, len(stats))
	for i, s := range stats {
		points[i] = models.ChartPoint{X: s.Key, Y: s.Value(metric)}
	}

	return models.ChartSpec{
		ID:          id,
		Kind:        models.ChartBar,
		Title:       title,
		XLabel:      string(metric),
		YLabel:      string(d),
		Orientation: "h",
		Series:      []models.ChartSeries{{Name: string(metric), Points: points}},
	}
}

// Choropleth maps total sales per state. Records without a state code are
// left out.
func Choropleth(records []models.OrderRecord) models.ChartSpec {
	keys, values := aggregate.SumByKey(records, models.DimStateCode, models.MetricSales)

	locations := make([]string, 0, len(keys))
	totals := make([]float64, 0, len(keys))
	for i, k := range keys {
		if k == "" {
			continue
		}
		locations = append(locations, k)
		totals = append(totals, values[i])
	}

	return models.ChartSpec{
		ID:           "choropleth",
		Kind:         models.ChartChoropleth,
		Title:        "Geographical sales distribution of USA",
		LocationMode: "USA-states",
		Locations:    locations,
		Values:       totals,
		ColorScale:   "PuBu",
		ColorBar:     "Total Sales",
	}
}
