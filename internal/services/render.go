package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"superstore-dashboard/internal/charts"
	"superstore-dashboard/internal/forecast"
	"superstore-dashboard/internal/kpi"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
)

const topN = 10

var ErrInvalidNavigation = errors.New("invalid navigation state")

// Breakdown dimensions shown for the selected indicator.
var breakdowns = []models.Dimension{
	models.DimCategory, models.DimSubCategory, models.DimOrderDay,
	models.DimOrderMonth, models.DimRegion, models.DimShipMode,
}

// ParseNavigation validates a client-supplied state against the loaded
// dataset. Empty fields take their defaults.
func (a *Analytics) ParseNavigation(state models.NavigationState) (models.NavigationState, error) {
	return parseNavigation(a.snapshot(), state)
}

func parseNavigation(ds *models.Dataset, state models.NavigationState) (models.NavigationState, error) {
	if state.View == "" {
		state.View = models.ViewOverview
	}
	if state.Indicator == "" {
		state.Indicator = models.IndicatorProfit
	}
	if !state.Indicator.Valid() {
		return state, fmt.Errorf("%w: unknown indicator %q", ErrInvalidNavigation, state.Indicator)
	}
	if state.IsOverview() {
		return state, nil
	}

	year, err := strconv.Atoi(state.View)
	if err != nil {
		return state, fmt.Errorf("%w: unknown view %q", ErrInvalidNavigation, state.View)
	}
	if !ds.HasYear(year) {
		return state, fmt.Errorf("%w: year %d not in dataset", ErrInvalidNavigation, year)
	}
	return state, nil
}

// Render builds the full page model for state. It reads the dataset
// snapshot only; every heavy computation goes through the memo cache.
func (a *Analytics) Render(ctx context.Context, state models.NavigationState) (*models.DashboardView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds := a.snapshot()
	state, err := parseNavigation(ds, state)
	if err != nil {
		return nil, err
	}

	_, span := observability.StartSpan(ctx, "dashboard.render")
	span.SetTag("view", state.View)
	span.SetTag("indicator", string(state.Indicator))
	defer func() {
		span.Finish()
		observability.LoggerFrom(ctx, a.logger).Debug("dashboard rendered", "span", span)
	}()

	view := &models.DashboardView{
		State:      state,
		Options:    viewOptions(ds, state),
		Indicators: models.Indicators(),
	}

	if year, ok := state.Year(); ok {
		observability.RecordRender("year")
		err = a.renderYear(ds, view, year)
	} else {
		observability.RecordRender("overview")
		err = a.renderOverview(ds, view)
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return view, nil
}

func viewOptions(ds *models.Dataset, state models.NavigationState) []models.ViewOption {
	opts := []models.ViewOption{{Value: models.ViewOverview, Label: "General", Selected: state.IsOverview()}}
	for _, y := range ds.Years {
		v := strconv.Itoa(y)
		opts = append(opts, models.ViewOption{Value: v, Label: v, Selected: state.View == v})
	}
	return opts
}

func chartPanel(spec models.ChartSpec) models.Panel {
	return models.Panel{ID: spec.ID, Heading: spec.Title, Chart: &spec}
}

func (a *Analytics) renderOverview(ds *models.Dataset, view *models.DashboardView) error {
	state := view.State
	years := len(ds.Years)
	span := fmt.Sprintf("%d-year period", years)
	if years > 0 {
		view.Title = fmt.Sprintf("General overview of the sales, profits and other metrics using a %s; %d - %d data from a superstore",
			span, ds.Years[0], ds.Years[years-1])
	} else {
		view.Title = "General overview of the sales, profits and other metrics"
	}
	view.Caption = "Note: Use the sidebar for individual year analysis."

	s := a.summary(ds)
	view.KPIs = []models.KPICard{
		{Label: "Total Revenue", Value: kpi.Currency(s.TotalSales), Raw: s.TotalSales},
		{Label: "Net Profit", Value: kpi.Currency(s.NetProfit), Raw: s.NetProfit},
		{Label: "Total Discount", Value: kpi.Currency(s.TotalDiscount), Raw: s.TotalDiscount},
		{Label: "Active Customers", Value: strconv.Itoa(s.UniqueCustomers), Raw: float64(s.UniqueCustomers)},
		{Label: "Unique Products", Value: strconv.Itoa(s.UniqueProducts), Raw: float64(s.UniqueProducts)},
		{Label: "Units Sold", Value: kpi.Millify(float64(s.TotalQuantity)), Raw: float64(s.TotalQuantity)},
	}

	series := a.monthlySales(ds)
	trend := models.Section{
		Heading: "1. Visualization of the trends and the comparison of total sales over the " + span + ".",
		Description: "Monthly sales across the whole period show the seasonal pattern; the comparison " +
			"plot lines the years up month by month.",
		Panels: []models.Panel{
			chartPanel(charts.MonthlyTrend(series)),
			chartPanel(charts.YearOverlay(series)),
		},
	}

	seasonal := models.Section{
		Heading:     "2. Seasonal monthly and quarterly plots",
		Description: "Sales of each month (left) and quarter (right) across years, with the mean of each period.",
		Panels: []models.Panel{
			{ID: "seasonal-month", Heading: "Month plot", Image: "/charts/seasonal/month.png"},
			{ID: "seasonal-quarter", Heading: "Quarter plot", Image: "/charts/seasonal/quarter.png"},
		},
	}

	forecastPanel := models.Panel{ID: "forecast", Heading: "Sales forecast", Wide: true}
	if fc, err := a.fitForecast(ds); err != nil {
		if !errors.Is(err, forecast.ErrInsufficientHistory) {
			a.logger.Error("forecast failed", "error", err)
		}
		forecastPanel.Error = "Forecast unavailable: " + err.Error()
	} else {
		spec := charts.ForecastChart(series, fc)
		forecastPanel.Heading = spec.Title
		forecastPanel.Chart = &spec
	}
	forecastHeading := "3. Predicting into the future: Forecasting sales"
	if years > 0 {
		forecastHeading = fmt.Sprintf("3. Predicting into the future: Forecasting %d sales", ds.Years[years-1]+1)
	}
	predict := models.Section{
		Heading: forecastHeading,
		Description: fmt.Sprintf("Given the monthly history, a %s model predicts sales for the next %d months.",
			a.order.String(), a.horizon),
		Panels: []models.Panel{forecastPanel},
	}

	geoPanel := chartPanel(a.choropleth(ds))
	geoPanel.Wide = true
	geo := models.Section{
		Heading:     "4. Sales distribution over US regions",
		Description: "Total sales per state over the whole period.",
		Panels:      []models.Panel{geoPanel},
	}
	if ds.UnmappedStates > 0 {
		geo.Description += fmt.Sprintf(" %d orders with an unrecognized state are not shown.", ds.UnmappedStates)
	}

	further := models.Section{
		Heading: "5. Further Analysis and Plots",
		Description: "The influence of the product and order categories on " +
			state.Indicator.Label() + " over the whole period, stacked by year.",
	}
	for _, d := range breakdowns {
		further.Panels = append(further.Panels, chartPanel(a.categoryHistogram(ds, d, state.Indicator)))
	}

	top, err := a.topSection(ds, state, AllYears, "6. Top-10 Products and Top-10 Customers")
	if err != nil {
		return err
	}

	view.Sections = []models.Section{trend, seasonal, predict, geo, further, top}
	return nil
}

func (a *Analytics) renderYear(ds *models.Dataset, view *models.DashboardView, year int) error {
	state := view.State
	view.Title = "Key metrics and the '%' change with respect to previous year."

	ys, err := a.yearSummary(ds, year)
	if err != nil {
		return err
	}
	if ys.Baseline == year {
		view.Caption = fmt.Sprintf("%d is the first year in the data; changes are reported as 0%%.", year)
	} else {
		view.Caption = fmt.Sprintf("Changes compare %d with %d.", year, ys.Baseline)
	}

	s, d := ys.Summary, ys.Deltas
	view.KPIs = []models.KPICard{
		{Label: "Units Sold", Value: kpi.Millify(float64(s.TotalQuantity)), Raw: float64(s.TotalQuantity), Delta: &d.TotalQuantity},
		{Label: "Total Sales", Value: kpi.Currency(s.TotalSales), Raw: s.TotalSales, Delta: &d.TotalSales},
		{Label: "Net Profit", Value: kpi.Currency(s.NetProfit), Raw: s.NetProfit, Delta: &d.NetProfit},
		{Label: "Total Discount", Value: kpi.Currency(s.TotalDiscount), Raw: s.TotalDiscount, Delta: &d.TotalDiscount},
		{Label: "Active Customers", Value: strconv.Itoa(s.UniqueCustomers), Raw: float64(s.UniqueCustomers), Delta: &d.UniqueCustomers},
		{Label: "Unique Products", Value: strconv.Itoa(s.UniqueProducts), Raw: float64(s.UniqueProducts), Delta: &d.UniqueProducts},
	}

	cities, err := a.top(ds, models.DimCity, models.MetricQuantity, year, topN)
	if err != nil {
		return err
	}
	monthly := models.Section{
		Heading: "1. Monthly sales and the top US cities with the most products sold.",
		Panels: []models.Panel{
			chartPanel(charts.YearMonthly(a.monthlySales(ds), year)),
			chartPanel(charts.TopNBar("top-cities", "Top-10 cities by units sold", cities, models.DimCity, models.MetricQuantity)),
		},
	}

	further := models.Section{
		Heading: "2. Further Analysis and Plots",
		Description: fmt.Sprintf("The share of %s by product and order category in %d.",
			state.Indicator.Label(), year),
	}
	for _, dim := range breakdowns {
		further.Panels = append(further.Panels, chartPanel(a.categoryPie(ds, year, dim, state.Indicator)))
	}

	top, err := a.topSection(ds, state, year, "3. Top-10 Products and Top-10 Customers")
	if err != nil {
		return err
	}

	view.Sections = []models.Section{monthly, further, top}
	return nil
}

func (a *Analytics) topSection(ds *models.Dataset, state models.NavigationState, year int, heading string) (models.Section, error) {
	period := "the whole period"
	if year != AllYears {
		period = strconv.Itoa(year)
	}
	section := models.Section{
		Heading:     heading,
		Description: "Reveal the top-10 products and the top-10 customers by units sold for " + period + ".",
	}

	if state.ShowTopProducts {
		stats, err := a.top(ds, models.DimProductID, models.MetricQuantity, year, topN)
		if err != nil {
			return section, err
		}
		section.Panels = append(section.Panels,
			chartPanel(charts.TopNBar("top-products", "Top-10 Products", stats, models.DimProductID, models.MetricQuantity)))
	}
	if state.ShowTopCustomers {
		stats, err := a.top(ds, models.DimCustomerName, models.MetricQuantity, year, topN)
		if err != nil {
			return section, err
		}
		section.Panels = append(section.Panels,
			chartPanel(charts.TopNBar("top-customers", "Top-10 Customers", stats, models.DimCustomerName, models.MetricQuantity)))
	}
	return section, nil
}
