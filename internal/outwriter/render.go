package outwriter

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"github.com/huangsam/loadcompare/schema"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Bar colors of the two targets.
var (
	targetAColor = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
	targetBColor = color.RGBA{R: 0x10, G: 0xb9, B: 0x81, A: 0xff}
)

// renderFormats are the image formats a chart can be saved as.
var renderFormats = map[string]struct{}{
	".png": {},
	".svg": {},
	".pdf": {},
}

// RenderChart draws the series as a grouped bar chart and saves it.
// The image format follows the file extension (png, svg or pdf).
func RenderChart(series schema.ChartSeries, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := renderFormats[ext]; !ok {
		return fmt.Errorf("unsupported chart format %q (use .png, .svg or .pdf)", ext)
	}
	if len(series.Points) == 0 {
		return errors.New("chart has no points to render")
	}

	pl, err := buildBarPlot(series)
	if err != nil {
		return err
	}

	width := vg.Length(math.Max(6, 1.2*float64(len(series.Points)))) * vg.Inch
	if err := pl.Save(width, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}
	return nil
}

// buildBarPlot assembles the plot with one bar pair per point.
func buildBarPlot(series schema.ChartSeries) (*plot.Plot, error) {
	valuesA := make(plotter.Values, len(series.Points))
	valuesB := make(plotter.Values, len(series.Points))
	labels := make([]string, len(series.Points))
	for i, p := range series.Points {
		valuesA[i] = p.ScenarioA
		valuesB[i] = p.ScenarioB
		labels[i] = p.Label
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s: %s%s", series.ScenarioID, series.MetricName, unitSuffix(series.Unit))
	pl.X.Label.Text = series.Axis
	pl.Y.Label.Text = series.MetricName

	w := vg.Points(14)

	barsA, err := plotter.NewBarChart(valuesA, w)
	if err != nil {
		return nil, fmt.Errorf("failed to build bars for %s: %w", series.TargetAName, err)
	}
	barsA.Color = targetAColor
	barsA.LineStyle.Width = vg.Length(0)
	barsA.Offset = -w / 2

	barsB, err := plotter.NewBarChart(valuesB, w)
	if err != nil {
		return nil, fmt.Errorf("failed to build bars for %s: %w", series.TargetBName, err)
	}
	barsB.Color = targetBColor
	barsB.LineStyle.Width = vg.Length(0)
	barsB.Offset = w / 2

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	pl.Add(grid, barsA, barsB)

	pl.Legend.Add(targetHeader(series.TargetAName, "A"), barsA)
	pl.Legend.Add(targetHeader(series.TargetBName, "B"), barsB)
	pl.Legend.Top = true

	pl.NominalX(labels...)
	if len(series.Points) > 6 {
		pl.X.Tick.Label.Rotation = -math.Pi / 8
		pl.X.Tick.Label.YAlign = draw.YTop
		pl.X.Tick.Label.XAlign = draw.XLeft
	}
	return pl, nil
}
