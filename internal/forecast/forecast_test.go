package forecast

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/models"
)

var seasonalPattern = []float64{900, 850, 1000, 950, 1020, 1100, 980, 1005, 1300, 1080, 1500, 1700}

func monthlySeries(start time.Time, values []float64) models.MonthlySeries {
	series := make(models.MonthlySeries, len(values))
	for i, v := range values {
		series[i] = models.MonthlyPoint{Month: start.AddDate(0, i, 0), Sales: v}
	}
	return series
}

func repeatPattern(years int) []float64 {
	out := make([]float64, 0, years*len(seasonalPattern))
	for range years {
		out = append(out, seasonalPattern...)
	}
	return out
}

func TestForecast_Seasonal(t *testing.T) {
	start := time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC)
	series := monthlySeries(start, repeatPattern(4))

	fc, err := Forecast(series, DefaultOrder, Horizon)
	require.NoError(t, err)
	require.Len(t, fc.Points, Horizon)

	assert.Equal(t, "SARIMA(2,1,0)(1,0,0,12)", fc.Model)
	assert.Equal(t, 48, fc.Observations)
	assert.Equal(t, start, fc.TrainedFrom)
	assert.Equal(t, time.Date(2017, time.December, 1, 0, 0, 0, 0, time.UTC), fc.TrainedTo)
	assert.Len(t, fc.Params.AR, 2)
	assert.Len(t, fc.Params.SeasonalAR, 1)

	for h, p := range fc.Points {
		assert.Equal(t, time.Date(2018, time.Month(h+1), 1, 0, 0, 0, 0, time.UTC), p.Month)
		assert.InDelta(t, seasonalPattern[h], p.Value, 50, "month %d", h+1)
	}
}

func TestForecast_TrendAndSeason(t *testing.T) {
	values := repeatPattern(3)
	for i := range values {
		values[i] += 15 * float64(i)
	}
	series := monthlySeries(time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC), values)

	fc, err := Forecast(series, DefaultOrder, Horizon)
	require.NoError(t, err)
	require.Len(t, fc.Points, Horizon)

	for _, p := range fc.Points {
		assert.False(t, math.IsNaN(p.Value) || math.IsInf(p.Value, 0))
	}
	for _, phi := range fc.Params.SeasonalAR {
		assert.Less(t, math.Abs(phi), 1.0)
	}
}

func TestForecast_InsufficientHistory(t *testing.T) {
	start := time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		series models.MonthlySeries
	}{
		{"empty", nil},
		{"single month", monthlySeries(start, []float64{10})},
		{"one short", monthlySeries(start, repeatPattern(2)[:DefaultOrder.MinObservations()-1])},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Forecast(tt.series, DefaultOrder, Horizon)
			assert.True(t, errors.Is(err, ErrInsufficientHistory), "got %v", err)
		})
	}
}

func TestFit_MinimumLength(t *testing.T) {
	values := repeatPattern(2)[:DefaultOrder.MinObservations()]
	m, err := Fit(values, DefaultOrder)
	require.NoError(t, err)
	assert.Len(t, m.Predict(Horizon), Horizon)
}

func TestFit_UnsupportedOrder(t *testing.T) {
	_, err := Fit(repeatPattern(3), Order{P: 1, D: 1, Q: 1})
	assert.ErrorIs(t, err, ErrUnsupportedOrder)

	_, err = Fit(repeatPattern(3), Order{SP: 1, S: 1})
	assert.ErrorIs(t, err, ErrUnsupportedOrder)
}

func TestFit_RejectsNonFinite(t *testing.T) {
	values := repeatPattern(2)
	values[5] = math.NaN()
	_, err := Fit(values, DefaultOrder)
	assert.Error(t, err)
}

func TestPredict_RandomWalk(t *testing.T) {
	m, err := Fit([]float64{5, 5, 5, 5}, Order{D: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5, 5}, m.Predict(3))
	assert.Nil(t, m.Predict(0))
}

func TestConstrain_Roundtrip(t *testing.T) {
	tests := [][]float64{
		{0.5},
		{0.3, -0.2},
		{1.2, -0.5},
		{0.1, 0.2, -0.3},
	}
	for _, phi := range tests {
		got := constrain(unconstrain(phi))
		require.Len(t, got, len(phi))
		for i := range phi {
			assert.InDelta(t, phi[i], got[i], 1e-9)
		}
	}
}

func TestConstrain_Stationary(t *testing.T) {
	for _, u := range [][]float64{{50, -50}, {-100, 100}, {3, 3}} {
		phi := constrain(u)
		// AR(2) stationarity triangle.
		assert.Less(t, phi[0]+phi[1], 1.0)
		assert.Less(t, phi[1]-phi[0], 1.0)
		assert.Less(t, math.Abs(phi[1]), 1.0)
	}
}

func TestConstrain_Saturated(t *testing.T) {
	for _, u := range []float64{1e9, -1e9, 1e300, -1e300, math.MaxFloat64} {
		phi := constrain([]float64{u})
		assert.Less(t, math.Abs(phi[0]), 1.0, "u=%g", u)
	}
	phi := constrain([]float64{-1e12, -1e12})
	assert.Less(t, phi[0]+phi[1], 1.0)
	assert.Less(t, phi[1]-phi[0], 1.0)
	assert.Less(t, math.Abs(phi[1]), 1.0)
}

// arRoots returns the roots of 1 - a1 z - a2 z^2 for one or two lags. A
// zero polynomial has none.
func arRoots(t *testing.T, a []float64) []complex128 {
	t.Helper()
	switch {
	case len(a) == 1 || (len(a) == 2 && a[1] == 0):
		if a[0] == 0 {
			return nil
		}
		return []complex128{complex(1/a[0], 0)}
	case len(a) == 2:
		disc := cmplx.Sqrt(complex(a[0]*a[0]+4*a[1], 0))
		den := complex(-2*a[1], 0)
		return []complex128{
			(complex(a[0], 0) + disc) / den,
			(complex(a[0], 0) - disc) / den,
		}
	}
	t.Fatalf("unsupported polynomial degree %d", len(a))
	return nil
}

func TestFit_TrendAndSeasonRootsOutsideUnitCircle(t *testing.T) {
	values := repeatPattern(3)
	for i := range values {
		values[i] += 15 * float64(i)
	}
	m, err := Fit(values, DefaultOrder)
	require.NoError(t, err)

	for _, poly := range [][]float64{m.AR(), m.SeasonalAR()} {
		for _, z := range arRoots(t, poly) {
			assert.Greater(t, cmplx.Abs(z), 1.0, "coefficients %v", poly)
		}
	}
}

func TestExpand(t *testing.T) {
	coef := expand([]float64{0.5, 0.2}, []float64{0.4}, 4)
	// (1 - 0.5L - 0.2L^2)(1 - 0.4L^4)
	want := []float64{0.5, 0.2, 0, 0.4, -0.2, -0.08}
	require.Len(t, coef, len(want))
	for i := range want {
		assert.InDelta(t, want[i], coef[i], 1e-12, "lag %d", i+1)
	}
}
