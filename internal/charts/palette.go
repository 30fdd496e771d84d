package charts

import "superstore-dashboard/internal/models"

// Sequential palettes, lightest first.
var (
	paletteTempo = []string{
		"rgb(254, 245, 244)", "rgb(222, 224, 210)", "rgb(189, 206, 181)", "rgb(153, 189, 156)",
		"rgb(110, 173, 138)", "rgb(65, 157, 129)", "rgb(25, 137, 125)", "rgb(18, 116, 117)",
		"rgb(25, 94, 106)", "rgb(28, 72, 93)", "rgb(25, 51, 80)", "rgb(20, 29, 67)",
	}
	paletteBrwnyl = []string{
		"rgb(237, 229, 207)", "rgb(224, 194, 162)", "rgb(211, 156, 131)", "rgb(193, 118, 111)",
		"rgb(166, 84, 97)", "rgb(129, 55, 83)", "rgb(84, 31, 63)",
	}
	paletteTeal = []string{
		"rgb(209, 238, 234)", "rgb(168, 219, 217)", "rgb(133, 196, 201)", "rgb(104, 171, 184)",
		"rgb(79, 144, 166)", "rgb(59, 117, 143)", "rgb(42, 86, 116)",
	}
)

var yearColors = []string{"midnightblue", "maroon", "pink", "cadetblue"}

// HistogramPalette is the palette overview breakdowns use for an indicator.
func HistogramPalette(ind models.Indicator) []string {
	switch ind {
	case models.IndicatorSales:
		return clone(paletteBrwnyl)
	case models.IndicatorQuantity:
		return clone(paletteTeal)
	default:
		return clone(paletteTempo)
	}
}

// PiePalette is the palette year-detail pies use. Profit and quantity swap
// palettes relative to the overview.
func PiePalette(ind models.Indicator) []string {
	switch ind {
	case models.IndicatorSales:
		return clone(paletteBrwnyl)
	case models.IndicatorQuantity:
		return clone(paletteTempo)
	default:
		return clone(paletteTeal)
	}
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
