package forecast

import (
	"fmt"

	"superstore-dashboard/internal/models"
)

// Horizon is the number of months forecast after the last observation.
const Horizon = 12

// Forecast fits order to a monthly series and predicts the next horizon
// months. Points are contiguous with the last training month.
func Forecast(series models.MonthlySeries, order Order, horizon int) (models.Forecast, error) {
	if len(series) == 0 {
		return models.Forecast{}, fmt.Errorf("%w: empty series", ErrInsufficientHistory)
	}

	model, err := Fit(series.Values(), order)
	if err != nil {
		return models.Forecast{}, err
	}

	last := series[len(series)-1].Month
	values := model.Predict(horizon)
	points := make([]models.ForecastPoint, len(values))
	for i, v := range values {
		points[i] = models.ForecastPoint{Month: last.AddDate(0, i+1, 0), Value: v}
	}

	return models.Forecast{
		Model:        order.String(),
		TrainedFrom:  series[0].Month,
		TrainedTo:    last,
		Observations: len(series),
		Params: models.ModelParams{
			AR:         model.AR(),
			SeasonalAR: model.SeasonalAR(),
			Sigma2:     model.Sigma2(),
		},
		Points: points,
	}, nil
}
