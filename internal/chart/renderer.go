// Package chart renders aggregation output into PNG images.
package chart

import (
	"bytes"
	"fmt"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/kaisng/expense-tracker/internal/analytics"
	"github.com/kaisng/expense-tracker/internal/domain"
)

const (
	chartWidth  = 800
	chartHeight = 500
)

var overlayColor = drawing.Color{R: 0xEF, G: 0x44, B: 0x44, A: 0xFF}

// PNGRenderer implements analytics.Renderer with go-chart.
type PNGRenderer struct{}

var _ analytics.Renderer = (*PNGRenderer)(nil)

// NewPNGRenderer creates a renderer.
func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{}
}

// Render draws the spec into PNG bytes.
func (r *PNGRenderer) Render(spec analytics.ChartSpec) ([]byte, error) {
	if len(spec.Labels) == 0 || len(spec.Labels) != len(spec.Values) {
		return nil, fmt.Errorf("chart: invalid series: %d labels, %d values", len(spec.Labels), len(spec.Values))
	}

	switch spec.Type {
	case domain.ChartPie:
		return renderPie(spec)
	case domain.ChartLine:
		return renderLine(spec)
	default:
		return renderBar(spec)
	}
}

func renderPie(spec analytics.ChartSpec) ([]byte, error) {
	values := make([]gochart.Value, 0, len(spec.Values))
	for i, v := range spec.Values {
		if v <= 0 {
			continue
		}
		values = append(values, gochart.Value{Value: v, Label: spec.Labels[i]})
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("chart: no positive values to draw")
	}

	pie := gochart.PieChart{
		Title:  spec.Title,
		Width:  chartWidth,
		Height: chartHeight,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart: render pie: %w", err)
	}
	return buf.Bytes(), nil
}

func renderBar(spec analytics.ChartSpec) ([]byte, error) {
	bars := make([]gochart.Value, len(spec.Values))
	for i, v := range spec.Values {
		bars[i] = gochart.Value{Value: v, Label: spec.Labels[i]}
	}

	bar := gochart.BarChart{
		Title:    spec.Title,
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: barWidth(len(bars)),
		Bars:     bars,
	}

	var buf bytes.Buffer
	if err := bar.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart: render bar: %w", err)
	}
	return buf.Bytes(), nil
}

func renderLine(spec analytics.ChartSpec) ([]byte, error) {
	xs := make([]float64, len(spec.Values))
	for i := range spec.Values {
		xs[i] = float64(i)
	}

	series := []gochart.Series{
		gochart.ContinuousSeries{
			Name:    spec.Title,
			XValues: xs,
			YValues: spec.Values,
		},
	}

	// The moving-average overlay is aligned to the tail of the series.
	if n := len(spec.Overlay); n > 0 && n <= len(spec.Values) {
		offset := len(spec.Values) - n
		oxs := make([]float64, n)
		for i := range oxs {
			oxs[i] = float64(offset + i)
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    "7-bucket Moving Average",
			XValues: oxs,
			YValues: spec.Overlay,
			Style: gochart.Style{
				StrokeColor: overlayColor,
				StrokeWidth: 2,
			},
		})
	}

	line := gochart.Chart{
		Title:  spec.Title,
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: gochart.XAxis{
			Ticks: tickSample(spec.Labels),
		},
		Series: series,
	}

	var buf bytes.Buffer
	if err := line.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart: render line: %w", err)
	}
	return buf.Bytes(), nil
}

// tickSample keeps the x axis readable by labeling at most eight evenly
// spaced points.
func tickSample(labels []string) []gochart.Tick {
	const maxTicks = 8
	step := 1
	if len(labels) > maxTicks {
		step = (len(labels) + maxTicks - 1) / maxTicks
	}
	ticks := make([]gochart.Tick, 0, maxTicks+1)
	for i := 0; i < len(labels); i += step {
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: labels[i]})
	}
	if last := len(labels) - 1; len(ticks) > 0 && ticks[len(ticks)-1].Value != float64(last) {
		ticks = append(ticks, gochart.Tick{Value: float64(last), Label: labels[last]})
	}
	return ticks
}

func barWidth(bars int) int {
	if bars == 0 {
		return 60
	}
	w := (chartWidth - 100) / bars
	if w > 80 {
		return 80
	}
	if w < 10 {
		return 10
	}
	return w
}
