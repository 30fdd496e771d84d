package models

import "strconv"

const ViewOverview = "overview"

// Indicator selects the metric category breakdown charts bind to.
type Indicator string

const (
	IndicatorProfit   Indicator = "profit"
	IndicatorSales    Indicator = "sales"
	IndicatorQuantity Indicator = "quantity"
)

var indicators = []Indicator{IndicatorProfit, IndicatorSales, IndicatorQuantity}

func Indicators() []Indicator {
	return append([]Indicator(nil), indicators...)
}

func (i Indicator) Valid() bool {
	switch i {
	case IndicatorProfit, IndicatorSales, IndicatorQuantity:
		return true
	}
	return false
}

func (i Indicator) Metric() Metric {
	switch i {
	case IndicatorSales:
		return MetricSales
	case IndicatorQuantity:
		return MetricQuantity
	default:
		return MetricProfit
	}
}

func (i Indicator) Label() string {
	switch i {
	case IndicatorSales:
		return "Sales"
	case IndicatorQuantity:
		return "Quantity = Units sold"
	default:
		return "Profit Margin"
	}
}

// NavigationState is everything the user controls on the page. It is held
// by the client as Datastar signals and sent back on every interaction.
type NavigationState struct {
	View             string    `json:"view"`
	Indicator        Indicator `json:"indicator"`
	ShowTopProducts  bool      `json:"showTopProducts"`
	ShowTopCustomers bool      `json:"showTopCustomers"`
}

func DefaultNavigation() NavigationState {
	return NavigationState{View: ViewOverview, Indicator: IndicatorProfit}
}

func (s NavigationState) IsOverview() bool {
	return s.View == "" || s.View == ViewOverview
}

// Year returns the selected year in year-detail state.
func (s NavigationState) Year() (int, bool) {
	if s.IsOverview() {
		return 0, false
	}
	y, err := strconv.Atoi(s.View)
	if err != nil {
		return 0, false
	}
	return y, true
}

type ViewOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

type KPICard struct {
	Label string  `json:"label"`
	Value string  `json:"value"`
	Raw   float64 `json:"raw"`
	Delta *Delta  `json:"delta,omitempty"`
}

// Panel is one section of the page. Exactly one of Chart, Image or Error
// is meaningful; Error holds a message contained to this panel.
type Panel struct {
	ID          string     `json:"id"`
	Heading     string     `json:"heading"`
	Description string     `json:"description,omitempty"`
	Chart       *ChartSpec `json:"chart,omitempty"`
	Image       string     `json:"image,omitempty"`
	Error       string     `json:"error,omitempty"`
	Wide        bool       `json:"wide,omitempty"`
}

type Section struct {
	Heading     string  `json:"heading"`
	Description string  `json:"description,omitempty"`
	Panels      []Panel `json:"panels"`
}

type DashboardView struct {
	State      NavigationState `json:"state"`
	Title      string          `json:"title"`
	Caption    string          `json:"caption,omitempty"`
	Options    []ViewOption    `json:"options"`
	Indicators []Indicator     `json:"indicators"`
	KPIs       []KPICard       `json:"kpis"`
	Sections   []Section       `json:"sections"`
}

// Charts returns every chart spec on the page keyed by its ID.
func (v *DashboardView) Charts() map[string]*ChartSpec {
	out := make(map[string]*ChartSpec)
	for _, s := range v.Sections {
		for _, p := range s.Panels {
			if p.Chart != nil {
				out[p.Chart.ID] = p.Chart
			}
		}
	}
	return out
}
