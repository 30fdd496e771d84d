package charts

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"superstore-dashboard/internal/models"
)

var ErrNoData = errors.New("no data to plot")

var (
	seasonLine = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	meanLine   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

const (
	seasonalWidth  = 5 * vg.Inch
	seasonalHeight = 2.4 * vg.Inch
	segmentSpan    = 0.8
)

// MonthPlot renders a seasonal subseries plot: for every calendar month,
// that month's sales across years followed by their mean.
func MonthPlot(series models.MonthlySeries) ([]byte, error) {
	groups := make([][]float64, 12)
	for _, p := range series {
		m := int(p.Month.Month()) - 1
		groups[m] = append(groups[m], p.Sales)
	}
	labels := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	return seasonalPlot("Monthly sales by month", labels, groups)
}

// QuarterPlot is MonthPlot over calendar quarters.
func QuarterPlot(quarters []models.QuarterlyPoint) ([]byte, error) {
	groups := make([][]float64, 4)
	for _, q := range quarters {
		if q.Quarter < 1 || q.Quarter > 4 {
			continue
		}
		groups[q.Quarter-1] = append(groups[q.Quarter-1], q.Sales)
	}
	return seasonalPlot("Quarterly sales by quarter", []string{"Q1", "Q2", "Q3", "Q4"}, groups)
}

func seasonalPlot(title string, labels []string, groups [][]float64) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Sales"
	p.Add(plotter.NewGrid())

	var plotted int
	for i, values := range groups {
		if len(values) == 0 {
			continue
		}
		plotted++

		center := float64(i)
		pts := make(plotter.XYs, len(values))
		var sum float64
		for j, v := range values {
			offset := 0.0
			if len(values) > 1 {
				offset = segmentSpan*float64(j)/float64(len(values)-1) - segmentSpan/2
			}
			pts[j] = plotter.XY{X: center + offset, Y: v}
			sum += v
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("season %s: %w", labels[i], err)
		}
		line.Color = seasonLine
		line.Width = vg.Points(1.5)
		p.Add(line)

		mean := sum / float64(len(values))
		meanPts := plotter.XYs{
			{X: center - segmentSpan/2, Y: mean},
			{X: center + segmentSpan/2, Y: mean},
		}
		m, err := plotter.NewLine(meanPts)
		if err != nil {
			return nil, fmt.Errorf("season %s mean: %w", labels[i], err)
		}
		m.Color = meanLine
		m.Width = vg.Points(1)
		p.Add(m)
	}
	if plotted == 0 {
		return nil, ErrNoData
	}

	p.NominalX(labels...)
	p.X.Min = -0.5
	p.X.Max = float64(len(labels)) - 0.5

	wt, err := p.WriterTo(seasonalWidth, seasonalHeight, "png")
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
