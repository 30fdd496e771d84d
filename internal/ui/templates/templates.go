// Package templates renders the dashboard page and the content fragment
// patched over SSE. Components live in dashboard.templ; regenerate
// dashboard_templ.go with `templ generate` after editing it.
package templates

import (
	"context"
	_ "embed"
	"encoding/json"
	"io"

	"github.com/a-h/templ"

	"superstore-dashboard/internal/models"
)

const (
	plotlyURL   = "https://cdn.jsdelivr.net/npm/plotly.js-dist-min@2.35.2/plotly.min.js"
	datastarURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"
)

var (
	//go:embed dashboard.css
	dashboardCSS string

	//go:embed charts.js
	chartsJS string
)

// Signals is the client-held state. Charts is patched by the server after
// every render; the rest is bound to the sidebar controls.
type Signals struct {
	View             string                       `json:"view"`
	Indicator        models.Indicator             `json:"indicator"`
	ShowTopProducts  bool                         `json:"showTopProducts"`
	ShowTopCustomers bool                         `json:"showTopCustomers"`
	Charts           map[string]*models.ChartSpec `json:"charts"`
}

func SignalsFor(view *models.DashboardView) Signals {
	return Signals{
		View:             view.State.View,
		Indicator:        view.State.Indicator,
		ShowTopProducts:  view.State.ShowTopProducts,
		ShowTopCustomers: view.State.ShowTopCustomers,
		Charts:           view.Charts(),
	}
}

func signalsJSON(view *models.DashboardView) (string, error) {
	b, err := json.Marshal(SignalsFor(view))
	return string(b), err
}

func deltaClass(d models.Delta) string {
	switch {
	case !d.Defined:
		return "none"
	case d.Percent < 0:
		return "down"
	}
	return "up"
}

// inlineStyle and inlineScript write trusted embedded assets verbatim.
func inlineStyle(css string) templ.Component {
	return rawElement("style", css)
}

func inlineScript(js string) templ.Component {
	return rawElement("script", js)
}

func rawElement(name, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<"+name+">"+body+"</"+name+">")
		return err
	})
}
