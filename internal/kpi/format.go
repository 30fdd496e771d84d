package kpi

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Millify renders a number with an SI suffix rounded to two decimals:
// 1234567 -> "1.23M", 35.75 -> "35.75".
func Millify(v float64) string {
	value, prefix := v, ""
	if math.Abs(v) >= 1000 {
		value, prefix = humanize.ComputeSI(v)
	}
	rounded := round2(value)
	if math.Abs(rounded) >= 1000 {
		// Rounding carried into the next prefix: 999999 is "1M", not "1000k".
		scale := math.Round(v / value)
		value, prefix = humanize.ComputeSI(rounded * scale)
		rounded = round2(value)
	}
	if rounded == 0 {
		rounded = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64) + prefix
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func Currency(v float64) string {
	return "$ " + Millify(v)
}
