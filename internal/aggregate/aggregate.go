// Package aggregate holds the grouped-sum and percent-change operations
// shared by the KPI cards and the breakdown charts.
package aggregate

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"superstore-dashboard/internal/models"
)

var monthIndex = func() map[string]int {
	m := make(map[string]int, 12)
	for i := time.January; i <= time.December; i++ {
		m[i.String()] = int(i)
	}
	return m
}()

// Weekdays in display order, Monday first.
var weekdayIndex = map[string]int{
	"Monday": 1, "Tuesday": 2, "Wednesday": 3, "Thursday": 4,
	"Friday": 5, "Saturday": 6, "Sunday": 7,
}

// KeyOrder returns the natural ordering of a dimension's values: numeric
// for years, calendar for months and weekdays, lexical otherwise.
func KeyOrder(d models.Dimension) func(a, b string) int {
	switch d {
	case models.DimOrderYear:
		return func(a, b string) int {
			x, errA := strconv.Atoi(a)
			y, errB := strconv.Atoi(b)
			if errA != nil || errB != nil {
				return strings.Compare(a, b)
			}
			return cmp.Compare(x, y)
		}
	case models.DimOrderMonth:
		return byIndex(monthIndex)
	case models.DimOrderDay:
		return byIndex(weekdayIndex)
	default:
		return strings.Compare
	}
}

func byIndex(index map[string]int) func(a, b string) int {
	return func(a, b string) int {
		ia, okA := index[a]
		ib, okB := index[b]
		switch {
		case okA && okB:
			return cmp.Compare(ia, ib)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return strings.Compare(a, b)
		}
	}
}

// GroupedStats partitions records by groupBy and sums quantity, discount,
// sales and profit per partition. Rows come back ascending by sortBy; ties
// keep the natural key order of the dimension.
func GroupedStats(records []models.OrderRecord, groupBy models.Dimension, sortBy models.Metric) []models.GroupedStat {
	index := make(map[string]int)
	stats := make([]models.GroupedStat, 0)

	for _, r := range records {
		key := r.Key(groupBy)
		i, ok := index[key]
		if !ok {
			i = len(stats)
			index[key] = i
			stats = append(stats, models.GroupedStat{Key: key})
		}
		s := &stats[i]
		s.Quantity += float64(r.Quantity)
		s.Discount += r.Discount
		s.Sales += r.Sales
		s.Profit += r.Profit
	}

	order := KeyOrder(groupBy)
	slices.SortFunc(stats, func(a, b models.GroupedStat) int {
		return order(a.Key, b.Key)
	})
	slices.SortStableFunc(stats, func(a, b models.GroupedStat) int {
		return cmp.Compare(a.Value(sortBy), b.Value(sortBy))
	})
	return stats
}

// Top returns the last n rows of an ascending table, i.e. the n largest,
// still in ascending order.
func Top(stats []models.GroupedStat, n int) []models.GroupedStat {
	if n <= 0 {
		return nil
	}
	if len(stats) <= n {
		return stats
	}
	return stats[len(stats)-n:]
}

// Percent returns (current-previous)/previous*100, undefined when the
// baseline is zero.
func Percent(current, previous float64) models.Delta {
	if previous == 0 {
		return models.UndefinedDelta()
	}
	return models.DefinedDelta((current - previous) / previous * 100)
}

// Changes computes period-over-period percent changes of an ordered
// series. The first period's change is defined as zero.
func Changes(values []float64) []models.Delta {
	out := make([]models.Delta, len(values))
	for i := range values {
		if i == 0 {
			out[i] = models.DefinedDelta(0)
			continue
		}
		out[i] = Percent(values[i], values[i-1])
	}
	return out
}

// PercentChange sums metric per groupBy partition, orders partitions by
// the dimension's natural order and attaches the change relative to the
// immediately preceding partition.
func PercentChange(records []models.OrderRecord, groupBy models.Dimension, metric models.Metric) []models.PercentChangeRow {
	keys, values := SumByKey(records, groupBy, metric)
	changes := Changes(values)

	rows := make([]models.PercentChangeRow, len(keys))
	for i := range keys {
		rows[i] = models.PercentChangeRow{Key: keys[i], Value: values[i], Change: changes[i]}
	}
	return rows
}

// YearlyChanges is PercentChange by order year for every metric at once.
func YearlyChanges(records []models.OrderRecord) []models.YearlyChange {
	years := models.YearsOf(records)
	out := make([]models.YearlyChange, len(years))
	for i, y := range years {
		out[i] = models.YearlyChange{
			Year:    y,
			Totals:  make(map[models.Metric]float64, 4),
			Changes: make(map[models.Metric]models.Delta, 4),
		}
	}

	for _, m := range models.Metrics() {
		for i, row := range PercentChange(records, models.DimOrderYear, m) {
			out[i].Totals[m] = row.Value
			out[i].Changes[m] = row.Change
		}
	}
	return out
}

// SumByKey sums metric per distinct value of d, returning keys in natural
// order with their totals.
func SumByKey(records []models.OrderRecord, d models.Dimension, metric models.Metric) ([]string, []float64) {
	sums := make(map[string]float64)
	for _, r := range records {
		sums[r.Key(d)] += r.Value(metric)
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, KeyOrder(d))

	values := make([]float64, len(keys))
	for i, k := range keys {
		values[i] = sums[k]
	}
	return keys, values
}

// YearBreakdown is metric summed by category key and order year.
type YearBreakdown struct {
	Keys   []string
	Years  []int
	Values map[int][]float64 // year -> value per key, aligned with Keys
}

func SumByKeyAndYear(records []models.OrderRecord, d models.Dimension, metric models.Metric) YearBreakdown {
	keys, _ := SumByKey(records, d, metric)
	pos := make(map[string]int, len(keys))
	for i, k := range keys {
		pos[k] = i
	}

	years := models.YearsOf(records)
	values := make(map[int][]float64, len(years))
	for _, y := range years {
		values[y] = make([]float64, len(keys))
	}
	for _, r := range records {
		values[r.OrderYear][pos[r.Key(d)]] += r.Value(metric)
	}

	return YearBreakdown{Keys: keys, Years: years, Values: values}
}
