package aggregate

import (
	"math/rand/v2"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/models"
)

func order(date time.Time, category, city string, sales float64, qty int, discount, profit float64) models.OrderRecord {
	return models.OrderRecord{
		OrderDate:  date,
		OrderDay:   date.Weekday().String(),
		OrderMonth: date.Month().String(),
		OrderYear:  date.Year(),
		Category:   category,
		City:       city,
		Sales:      sales,
		Quantity:   qty,
		Discount:   discount,
		Profit:     profit,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func randomRecords(n int) []models.OrderRecord {
	rng := rand.New(rand.NewPCG(7, 11))
	categories := []string{"Furniture", "Office Supplies", "Technology"}
	cities := []string{"Houston", "Seattle", "Denver", "Miami", "Boston"}

	out := make([]models.OrderRecord, n)
	for i := range out {
		date := day(2014+rng.IntN(4), time.Month(1+rng.IntN(12)), 1+rng.IntN(28))
		out[i] = order(date,
			categories[rng.IntN(len(categories))],
			cities[rng.IntN(len(cities))],
			float64(rng.IntN(100000))/100,
			1+rng.IntN(9),
			float64(rng.IntN(9))/10,
			float64(rng.IntN(20000)-10000)/100,
		)
	}
	return out
}

func TestGroupedStats_Properties(t *testing.T) {
	records := randomRecords(500)

	for _, dim := range []models.Dimension{models.DimCategory, models.DimCity, models.DimOrderMonth, models.DimOrderYear} {
		t.Run(string(dim), func(t *testing.T) {
			stats := GroupedStats(records, dim, models.MetricSales)

			distinct := make(map[string]struct{})
			for _, r := range records {
				distinct[r.Key(dim)] = struct{}{}
			}
			require.Len(t, stats, len(distinct))

			for _, s := range stats {
				var want models.GroupedStat
				for _, r := range records {
					if r.Key(dim) != s.Key {
						continue
					}
					want.Quantity += float64(r.Quantity)
					want.Discount += r.Discount
					want.Sales += r.Sales
					want.Profit += r.Profit
				}
				assert.InDelta(t, want.Quantity, s.Quantity, 1e-6)
				assert.InDelta(t, want.Discount, s.Discount, 1e-6)
				assert.InDelta(t, want.Sales, s.Sales, 1e-6)
				assert.InDelta(t, want.Profit, s.Profit, 1e-6)
			}

			for i := 1; i < len(stats); i++ {
				assert.LessOrEqual(t, stats[i-1].Sales, stats[i].Sales)
			}
		})
	}
}

func TestGroupedStats_TiesKeepKeyOrder(t *testing.T) {
	records := []models.OrderRecord{
		order(day(2014, 1, 1), "Technology", "Miami", 10, 1, 0, 1),
		order(day(2014, 1, 2), "Furniture", "Miami", 10, 1, 0, 1),
		order(day(2014, 1, 3), "Office Supplies", "Miami", 5, 1, 0, 1),
	}

	stats := GroupedStats(records, models.DimCategory, models.MetricQuantity)
	keys := make([]string, len(stats))
	for i, s := range stats {
		keys[i] = s.Key
	}
	assert.Equal(t, []string{"Furniture", "Office Supplies", "Technology"}, keys)

	bySales := GroupedStats(records, models.DimCategory, models.MetricSales)
	assert.Equal(t, "Office Supplies", bySales[0].Key)
	assert.Equal(t, "Furniture", bySales[1].Key)
	assert.Equal(t, "Technology", bySales[2].Key)
}

func TestGroupedStats_Empty(t *testing.T) {
	assert.Empty(t, GroupedStats(nil, models.DimCity, models.MetricSales))
}

func TestTop(t *testing.T) {
	stats := make([]models.GroupedStat, 15)
	for i := range stats {
		stats[i] = models.GroupedStat{Key: strconv.Itoa(i), Quantity: float64(i)}
	}

	top := Top(stats, 10)
	require.Len(t, top, 10)
	assert.Equal(t, "5", top[0].Key)
	assert.Equal(t, "14", top[9].Key)

	assert.Len(t, Top(stats[:3], 10), 3)
	assert.Nil(t, Top(stats, 0))
}

func TestPercentChange_Scenario(t *testing.T) {
	records := []models.OrderRecord{
		order(day(2014, 3, 1), "Furniture", "Miami", 100, 1, 0, 0),
		order(day(2015, 3, 1), "Furniture", "Miami", 120, 1, 0, 0),
		order(day(2016, 3, 1), "Furniture", "Miami", 90, 1, 0, 0),
		order(day(2017, 3, 1), "Furniture", "Miami", 130, 1, 0, 0),
	}

	rows := PercentChange(records, models.DimOrderYear, models.MetricSales)
	require.Len(t, rows, 4)

	want := []float64{0, 20, -25, 44.4444444}
	for i, row := range rows {
		require.True(t, row.Change.Defined)
		assert.InDelta(t, want[i], row.Change.Percent, 1e-4, row.Key)
	}
	assert.Equal(t, []string{"2014", "2015", "2016", "2017"}, []string{rows[0].Key, rows[1].Key, rows[2].Key, rows[3].Key})
}

func TestPercentChange_RoundTrip(t *testing.T) {
	records := randomRecords(400)
	for _, m := range models.Metrics() {
		rows := PercentChange(records, models.DimOrderYear, m)
		require.NotEmpty(t, rows)
		assert.Equal(t, 0.0, rows[0].Change.Percent)

		for i := 1; i < len(rows); i++ {
			require.True(t, rows[i].Change.Defined)
			got := rows[i-1].Value * (1 + rows[i].Change.Percent/100)
			assert.InDelta(t, rows[i].Value, got, 1e-6)
		}
	}
}

func TestPercentChange_ZeroBaselineIsUndefined(t *testing.T) {
	records := []models.OrderRecord{
		order(day(2014, 1, 1), "Furniture", "Miami", 0, 1, 0, 0),
		order(day(2015, 1, 1), "Furniture", "Miami", 50, 1, 0, 0),
		order(day(2016, 1, 1), "Furniture", "Miami", 25, 1, 0, 0),
	}

	rows := PercentChange(records, models.DimOrderYear, models.MetricSales)
	assert.True(t, rows[0].Change.Defined)
	assert.False(t, rows[1].Change.Defined)
	assert.Equal(t, "undefined", rows[1].Change.String())
	assert.InDelta(t, -50, rows[2].Change.Percent, 1e-9)
}

func TestPercentChange_CalendarOrder(t *testing.T) {
	records := []models.OrderRecord{
		order(day(2014, 12, 1), "Furniture", "Miami", 40, 1, 0, 0),
		order(day(2014, 2, 1), "Furniture", "Miami", 20, 1, 0, 0),
		order(day(2014, 4, 1), "Furniture", "Miami", 30, 1, 0, 0),
	}

	rows := PercentChange(records, models.DimOrderMonth, models.MetricSales)
	require.Len(t, rows, 3)
	assert.Equal(t, "February", rows[0].Key)
	assert.Equal(t, "April", rows[1].Key)
	assert.Equal(t, "December", rows[2].Key)
	assert.InDelta(t, 50, rows[1].Change.Percent, 1e-9)
}

func TestYearlyChanges(t *testing.T) {
	records := []models.OrderRecord{
		order(day(2014, 1, 1), "Furniture", "Miami", 100, 2, 0.1, 10),
		order(day(2015, 1, 1), "Furniture", "Miami", 150, 4, 0.2, 5),
	}

	changes := YearlyChanges(records)
	require.Len(t, changes, 2)
	assert.Equal(t, 2015, changes[1].Year)
	assert.InDelta(t, 50, changes[1].Changes[models.MetricSales].Percent, 1e-9)
	assert.InDelta(t, 100, changes[1].Changes[models.MetricQuantity].Percent, 1e-9)
	assert.InDelta(t, -50, changes[1].Changes[models.MetricProfit].Percent, 1e-9)
	assert.InDelta(t, 4, changes[1].Totals[models.MetricQuantity], 1e-9)
}

func TestSumByKeyAndYear(t *testing.T) {
	records := []models.OrderRecord{
		order(day(2014, 1, 6), "Furniture", "Miami", 10, 1, 0, 0),
		order(day(2015, 1, 6), "Furniture", "Miami", 20, 1, 0, 0),
		order(day(2015, 1, 7), "Technology", "Miami", 5, 1, 0, 0),
	}

	b := SumByKeyAndYear(records, models.DimCategory, models.MetricSales)
	assert.Equal(t, []string{"Furniture", "Technology"}, b.Keys)
	assert.Equal(t, []int{2014, 2015}, b.Years)
	assert.Equal(t, []float64{10, 0}, b.Values[2014])
	assert.Equal(t, []float64{20, 5}, b.Values[2015])
}

func TestKeyOrder_Weekdays(t *testing.T) {
	cmpDay := KeyOrder(models.DimOrderDay)
	assert.Negative(t, cmpDay("Monday", "Sunday"))
	assert.Positive(t, cmpDay("Friday", "Tuesday"))
	assert.Zero(t, cmpDay("Friday", "Friday"))
}
