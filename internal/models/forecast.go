package models

import "time"

type ForecastPoint struct {
	Month time.Time `json:"month"`
	Value float64   `json:"value"`
}

// ModelParams are the fitted coefficients of the seasonal model.
type ModelParams struct {
	AR         []float64 `json:"ar"`
	SeasonalAR []float64 `json:"seasonal_ar"`
	Sigma2     float64   `json:"sigma2"`
}

// Forecast holds point predictions for the periods after the training range.
type Forecast struct {
	Model        string          `json:"model"`
	TrainedFrom  time.Time       `json:"trained_from"`
	TrainedTo    time.Time       `json:"trained_to"`
	Observations int             `json:"observations"`
	Params       ModelParams     `json:"params"`
	Points       []ForecastPoint `json:"points"`
}
