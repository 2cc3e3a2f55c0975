package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/oi_visualizer_go/internal/analysis"
)

// domeRadius is the outer radius of the dome projection.
const domeRadius = 2.0

// BoundaryColormap uses a fixed colour between consecutive boundaries.
type BoundaryColormap struct {
	Boundaries []float64     // N+1 boundaries for N colors
	Colors     []color.Color // N colors
	UnderColor color.Color   // below the first boundary
	OverColor  color.Color   // at or above the last boundary
	NaNColor   color.Color
}

// NewSeverityColormap colours OI values by severity band.
func NewSeverityColormap() *BoundaryColormap {
	return &BoundaryColormap{
		Boundaries: []float64{0, analysis.MildOIThreshold, analysis.ModerateOIThreshold, analysis.SevereOIThreshold},
		Colors: []color.Color{
			color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 255}, // green, none
			color.RGBA{R: 0xdb, G: 0xdb, B: 0x8d, A: 255}, // pale yellow, mild
			color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 255}, // orange, moderate
		},
		UnderColor: color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 255},
		OverColor:  color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 255}, // red, severe
		NaNColor:   color.Gray{Y: 200},
	}
}

// Color returns the color for a given z value.
func (cm *BoundaryColormap) Color(z float64) color.Color {
	if math.IsNaN(z) {
		return cm.NaNColor
	}
	if z < cm.Boundaries[0] {
		return cm.UnderColor
	}
	for i := 0; i < len(cm.Colors); i++ {
		if z >= cm.Boundaries[i] && z < cm.Boundaries[i+1] {
			return cm.Colors[i]
		}
	}
	return cm.OverColor
}

type colorList []color.Color

func (c colorList) Colors() []color.Color { return c }

// reversed flips a palette so that low values take its last colour.
func reversed(p palette.Palette) palette.Palette {
	src := p.Colors()
	out := make(colorList, len(src))
	for i, c := range src {
		out[len(src)-1-i] = c
	}
	return out
}

// domeGrid bins dome points into a square grid of mean OI values.
type domeGrid struct {
	bins int
	z    []float64
}

func newDomeGrid(points []analysis.DomePoint, bins int) *domeGrid {
	sums := make([]float64, bins*bins)
	counts := make([]int, bins*bins)
	cell := 2 * domeRadius / float64(bins)
	for _, pt := range points {
		if !finite(pt.X) || !finite(pt.Y) || !finite(pt.Z) {
			continue
		}
		c := int((pt.X + domeRadius) / cell)
		r := int((pt.Y + domeRadius) / cell)
		c = min(max(c, 0), bins-1)
		r = min(max(r, 0), bins-1)
		sums[r*bins+c] += pt.Z
		counts[r*bins+c]++
	}

	g := &domeGrid{bins: bins, z: make([]float64, bins*bins)}
	for i := range sums {
		if counts[i] == 0 {
			g.z[i] = math.NaN()
			continue
		}
		g.z[i] = sums[i] / float64(counts[i])
	}
	return g
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (g *domeGrid) Dims() (c, r int)   { return g.bins, g.bins }
func (g *domeGrid) Z(c, r int) float64 { return g.z[r*g.bins+c] }
func (g *domeGrid) X(c int) float64    { return g.center(c) }
func (g *domeGrid) Y(r int) float64    { return g.center(r) }

func (g *domeGrid) center(i int) float64 {
	cell := 2 * domeRadius / float64(g.bins)
	return -domeRadius + (float64(i)+0.5)*cell
}

// CreateDomeHeatmap renders the mean OI over a bins x bins grid of the
// dome projection. Empty cells are drawn grey.
func CreateDomeHeatmap(points []analysis.DomePoint, bins int) ([]byte, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no dome points to plot heatmap")
	}
	if bins < 2 {
		return nil, fmt.Errorf("heatmap needs at least 2 bins, got %d", bins)
	}

	grid := newDomeGrid(points, bins)

	pal, err := brewer.GetPalette(brewer.TypeDiverging, "RdYlGn", 9)
	if err != nil {
		return nil, fmt.Errorf("failed to load heatmap palette: %w", err)
	}
	cm := NewSeverityColormap()

	hm := plotter.NewHeatMap(grid, reversed(pal))
	hm.Min = 0
	hm.Max = analysis.SevereOIThreshold * 1.5
	hm.Underflow = cm.UnderColor
	hm.Overflow = cm.OverColor
	hm.NaN = cm.NaNColor

	p := plot.New()
	p.Title.Text = "Oxygenation Index Dome (mean OI per cell)"
	p.X.Label.Text = "x = 2 * PaO2 norm * cos(2pi FiO2)"
	p.Y.Label.Text = "y = 2 * PaO2 norm * sin(2pi FiO2)"
	p.X.Min, p.X.Max = -domeRadius, domeRadius
	p.Y.Min, p.Y.Max = -domeRadius, domeRadius
	p.Add(hm)

	return renderPNG(p, vg.Points(600), vg.Points(600))
}
