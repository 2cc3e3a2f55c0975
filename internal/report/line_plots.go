package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/user/oi_visualizer_go/internal/analysis"
	"github.com/user/oi_visualizer_go/internal/parser"
)

var seriesLabels = map[string]string{
	analysis.SeriesFiO2: "FiO2",
	analysis.SeriesMAP:  "MAP (cmH2O)",
	analysis.SeriesPaO2: "PaO2 (mmHg)",
	analysis.SeriesOI:   "Oxygenation Index",
}

var seriesColors = map[string]color.Color{
	analysis.SeriesFiO2: color.RGBA{R: 31, G: 119, B: 180, A: 255},
	analysis.SeriesMAP:  color.RGBA{R: 255, G: 127, B: 14, A: 255},
	analysis.SeriesPaO2: color.RGBA{R: 44, G: 160, B: 44, A: 255},
	analysis.SeriesOI:   color.RGBA{R: 214, G: 39, B: 40, A: 255},
}

// seriesValues returns a copy of the named series.
func seriesValues(data *parser.ProcessedData, series string) ([]float32, error) {
	switch series {
	case analysis.SeriesFiO2:
		return data.FiO2(), nil
	case analysis.SeriesMAP:
		return data.MAP(), nil
	case analysis.SeriesPaO2:
		return data.PaO2(), nil
	case analysis.SeriesOI:
		return data.OI(), nil
	default:
		return nil, fmt.Errorf("unknown series: %s", series)
	}
}

// CreateSeriesPlot generates a line plot of one series against row number.
func CreateSeriesPlot(data *parser.ProcessedData, series string) ([]byte, error) {
	if data.Len() == 0 {
		return nil, fmt.Errorf("no samples to plot")
	}
	values, err := seriesValues(data, series)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s by Sample", seriesLabels[series])
	p.X.Label.Text = "Sample Number"
	p.Y.Label.Text = seriesLabels[series]
	p.X.Min = 0
	p.X.Max = float64(len(values) + 1)
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(i + 1), Y: float64(v)})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("series %s has no finite values", series)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create line for %s: %w", series, err)
	}
	line.Color = seriesColors[series]
	line.Width = vg.Points(1.5)
	p.Add(line)

	if series == analysis.SeriesOI {
		addSeverityLines(p, 0, float64(len(values)+1))
	}

	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(10)
	p.Legend.Add(seriesLabels[series], line)

	return renderPNG(p, vg.Points(800), vg.Points(400))
}

// CreateOIScatterPlot plots OI against PaO2, one point per sample, coloured
// by severity band.
func CreateOIScatterPlot(data *parser.ProcessedData) ([]byte, error) {
	if data.Len() == 0 {
		return nil, fmt.Errorf("no samples to plot")
	}
	pao2, oi := data.PaO2(), data.OI()

	pts := make(plotter.XYs, 0, len(oi))
	minX, maxX := math.Inf(1), math.Inf(-1)
	for i := range oi {
		x, y := float64(pao2[i]), float64(oi[i])
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
		minX = math.Min(minX, x)
		maxX = math.Max(maxX, x)
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("no finite PaO2/OI pairs to plot")
	}

	p := plot.New()
	p.Title.Text = "Oxygenation Index vs PaO2"
	p.X.Label.Text = "PaO2 (mmHg)"
	p.Y.Label.Text = "Oxygenation Index"
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %w", err)
	}
	cm := NewSeverityColormap()
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  cm.Color(pts[i].Y),
			Radius: vg.Points(2.5),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(scatter)

	if minX == maxX {
		minX, maxX = minX-1, maxX+1
	}
	addSeverityLines(p, minX, maxX)
	p.Legend.Top = true

	return renderPNG(p, vg.Points(800), vg.Points(500))
}

// addSeverityLines draws dashed horizontal lines at the OI band thresholds.
func addSeverityLines(p *plot.Plot, xMin, xMax float64) {
	cm := NewSeverityColormap()
	bands := []struct {
		y     float64
		label string
	}{
		{analysis.MildOIThreshold, "Mild (OI 4)"},
		{analysis.ModerateOIThreshold, "Moderate (OI 8)"},
		{analysis.SevereOIThreshold, "Severe (OI 16)"},
	}
	for _, b := range bands {
		l, err := plotter.NewLine(plotter.XYs{{X: xMin, Y: b.y}, {X: xMax, Y: b.y}})
		if err != nil {
			continue
		}
		l.Color = cm.Color(b.y)
		l.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		p.Add(l)
		p.Legend.Add(b.label, l)
	}
}

func renderPNG(p *plot.Plot, width, height vg.Length) ([]byte, error) {
	writer, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %w", err)
	}
	return buf.Bytes(), nil
}
