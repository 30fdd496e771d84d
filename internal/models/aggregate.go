package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type GroupedStat struct {
	Key      string  `json:"key"`
	Quantity float64 `json:"quantity"`
	Discount float64 `json:"discount"`
	Sales    float64 `json:"sales"`
	Profit   float64 `json:"profit"`
}

// Value returns the summed metric m of the group.
func (g GroupedStat) Value(m Metric) float64 {
	switch m {
	case MetricQuantity:
		return g.Quantity
	case MetricDiscount:
		return g.Discount
	case MetricSales:
		return g.Sales
	case MetricProfit:
		return g.Profit
	default:
		return 0
	}
}

// Delta is a percent change that may be undefined when its baseline is zero.
type Delta struct {
	Percent float64
	Defined bool
}

func DefinedDelta(percent float64) Delta {
	return Delta{Percent: percent, Defined: true}
}

func UndefinedDelta() Delta {
	return Delta{}
}

// String formats the delta the way KPI cards display it.
func (d Delta) String() string {
	if !d.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.2f%%", d.Percent)
}

func (d Delta) MarshalJSON() ([]byte, error) {
	if !d.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(d.Percent)
}

func (d *Delta) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = UndefinedDelta()
		return nil
	}
	var p float64
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*d = DefinedDelta(p)
	return nil
}

type PercentChangeRow struct {
	Key    string  `json:"key"`
	Value  float64 `json:"value"`
	Change Delta   `json:"pct_change"`
}

// YearlyChange is one row of the per-year change table across all metrics.
type YearlyChange struct {
	Year    int                `json:"year"`
	Totals  map[Metric]float64 `json:"totals"`
	Changes map[Metric]Delta   `json:"changes"`
}

// MonthlyPoint is a calendar month and its summed sales. Month is the
// first day of the month in UTC.
type MonthlyPoint struct {
	Month time.Time `json:"month"`
	Sales float64   `json:"sales"`
}

type MonthlySeries []MonthlyPoint

// Values returns the sales values in chronological order.
func (s MonthlySeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Sales
	}
	return out
}

// Year returns the points falling in the given calendar year.
func (s MonthlySeries) Year(year int) MonthlySeries {
	var out MonthlySeries
	for _, p := range s {
		if p.Month.Year() == year {
			out = append(out, p)
		}
	}
	return out
}

// QuarterlyPoint is a calendar quarter and its summed sales.
type QuarterlyPoint struct {
	Year    int     `json:"year"`
	Quarter int     `json:"quarter"`
	Sales   float64 `json:"sales"`
}
