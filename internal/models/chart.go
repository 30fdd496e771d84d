package models

type ChartKind string

const (
	ChartLine       ChartKind = "line"
	ChartBar        ChartKind = "bar"
	ChartHistogram  ChartKind = "histogram"
	ChartPie        ChartKind = "pie"
	ChartChoropleth ChartKind = "choropleth"
)

type ChartPoint struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

type ChartSeries struct {
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
	Color  string       `json:"color,omitempty"`
}

// ChartSpec is a renderer-agnostic chart description. The page script maps
// it onto Plotly traces.
type ChartSpec struct {
	ID           string        `json:"id"`
	Kind         ChartKind     `json:"kind"`
	Title        string        `json:"title"`
	XLabel       string        `json:"x_label,omitempty"`
	YLabel       string        `json:"y_label,omitempty"`
	ColorLabel   string        `json:"color_label,omitempty"`
	Orientation  string        `json:"orientation,omitempty"`
	Stacked      bool          `json:"stacked,omitempty"`
	Markers      bool          `json:"markers,omitempty"`
	Series       []ChartSeries `json:"series,omitempty"`
	Palette      []string      `json:"palette,omitempty"`
	LocationMode string        `json:"location_mode,omitempty"`
	Locations    []string      `json:"locations,omitempty"`
	Values       []float64     `json:"values,omitempty"`
	ColorScale   string        `json:"color_scale,omitempty"`
	ColorBar     string        `json:"color_bar,omitempty"`
}
