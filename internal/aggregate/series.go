package aggregate

import (
	"time"

	"superstore-dashboard/internal/models"
)

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthlySales resamples sales to calendar months, covering every month
// between the first and last order inclusive. Months without orders are 0.
func MonthlySales(records []models.OrderRecord) models.MonthlySeries {
	if len(records) == 0 {
		return nil
	}

	first, last := records[0].OrderDate, records[0].OrderDate
	sums := make(map[time.Time]float64)
	for _, r := range records {
		if r.OrderDate.Before(first) {
			first = r.OrderDate
		}
		if r.OrderDate.After(last) {
			last = r.OrderDate
		}
		sums[monthStart(r.OrderDate)] += r.Sales
	}

	var series models.MonthlySeries
	for m := monthStart(first); !m.After(monthStart(last)); m = m.AddDate(0, 1, 0) {
		series = append(series, models.MonthlyPoint{Month: m, Sales: sums[m]})
	}
	return series
}

// QuarterlySales resamples the monthly series to calendar quarters.
func QuarterlySales(series models.MonthlySeries) []models.QuarterlyPoint {
	var out []models.QuarterlyPoint
	for _, p := range series {
		q := (int(p.Month.Month())-1)/3 + 1
		if n := len(out); n > 0 && out[n-1].Year == p.Month.Year() && out[n-1].Quarter == q {
			out[n-1].Sales += p.Sales
			continue
		}
		out = append(out, models.QuarterlyPoint{Year: p.Month.Year(), Quarter: q, Sales: p.Sales})
	}
	return out
}
