// Package kpi computes the scalar summary metrics shown on the KPI cards.
package kpi

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/aggregate"
	"superstore-dashboard/internal/models"
)

var ErrUnknownYear = errors.New("year not present in dataset")

type Summary struct {
	UniqueProducts  int     `json:"unique_products"`
	UniqueCustomers int     `json:"unique_customers"`
	TotalSales      float64 `json:"total_sales"`
	TotalQuantity   int     `json:"total_quantity"`
	TotalDiscount   float64 `json:"total_discount"`
	NetProfit       float64 `json:"net_profit"`
}

// Compute sums the snapshot. Currency columns are accumulated as decimals
// so totals do not drift with row order.
func Compute(records []models.OrderRecord) Summary {
	products := make(map[string]struct{})
	customers := make(map[string]struct{})
	sales, discount, profit := decimal.Zero, decimal.Zero, decimal.Zero
	quantity := 0

	for _, r := range records {
		products[r.ProductID] = struct{}{}
		customers[r.CustomerID] = struct{}{}
		sales = sales.Add(decimal.NewFromFloat(r.Sales))
		discount = discount.Add(decimal.NewFromFloat(r.Discount))
		profit = profit.Add(decimal.NewFromFloat(r.Profit))
		quantity += r.Quantity
	}

	return Summary{
		UniqueProducts:  len(products),
		UniqueCustomers: len(customers),
		TotalSales:      sales.InexactFloat64(),
		TotalQuantity:   quantity,
		TotalDiscount:   discount.InexactFloat64(),
		NetProfit:       profit.InexactFloat64(),
	}
}

type Deltas struct {
	UniqueProducts  models.Delta `json:"unique_products"`
	UniqueCustomers models.Delta `json:"unique_customers"`
	TotalSales      models.Delta `json:"total_sales"`
	TotalQuantity   models.Delta `json:"total_quantity"`
	TotalDiscount   models.Delta `json:"total_discount"`
	NetProfit       models.Delta `json:"net_profit"`
}

// YearSummary is a year's KPIs with their change against Baseline.
type YearSummary struct {
	Year     int     `json:"year"`
	Baseline int     `json:"baseline"`
	Summary  Summary `json:"summary"`
	Deltas   Deltas  `json:"deltas"`
}

// ForYear computes the KPIs of one year and their change against the
// nearest earlier year present in records. The earliest year in scope is
// its own baseline and always reports 0%.
func ForYear(records []models.OrderRecord, year int) (YearSummary, error) {
	years := models.YearsOf(records)
	idx, found := slices.BinarySearch(years, year)
	if !found {
		return YearSummary{}, fmt.Errorf("%w: %d", ErrUnknownYear, year)
	}

	current := Compute(models.FilterYear(records, year))
	if idx == 0 {
		zero := models.DefinedDelta(0)
		return YearSummary{
			Year:     year,
			Baseline: year,
			Summary:  current,
			Deltas:   Deltas{zero, zero, zero, zero, zero, zero},
		}, nil
	}

	baseline := years[idx-1]
	prev := Compute(models.FilterYear(records, baseline))
	return YearSummary{
		Year:     year,
		Baseline: baseline,
		Summary:  current,
		Deltas:   Compare(current, prev),
	}, nil
}

// Compare returns the percent change of every KPI from prev to current.
func Compare(current, prev Summary) Deltas {
	return Deltas{
		UniqueProducts:  aggregate.Percent(float64(current.UniqueProducts), float64(prev.UniqueProducts)),
		UniqueCustomers: aggregate.Percent(float64(current.UniqueCustomers), float64(prev.UniqueCustomers)),
		TotalSales:      aggregate.Percent(current.TotalSales, prev.TotalSales),
		TotalQuantity:   aggregate.Percent(float64(current.TotalQuantity), float64(prev.TotalQuantity)),
		TotalDiscount:   aggregate.Percent(current.TotalDiscount, prev.TotalDiscount),
		NetProfit:       aggregate.Percent(current.NetProfit, prev.NetProfit),
	}
}
