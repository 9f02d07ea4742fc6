package plot

import (
	"fmt"
	"image/color"
	"math"

	"wdiviz/domain/chart"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pieExtent is the half-width of the data range around a unit pie, leaving
// room for exploded wedges and their labels
const pieExtent = 1.3

// pieChart draws wedges counter-clockwise from startAngle (degrees) on a
// unit circle centred at the origin
type pieChart struct {
	slices     []chart.Slice
	percents   []float64
	colors     []color.Color
	startAngle float64
	format     string
}

func (pc *pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	center := vg.Point{X: trX(0), Y: trY(0)}
	radius := vg.Length(math.Min(float64(trX(1)-trX(0)), float64(trY(1)-trY(0))))

	labelStyle := plt.X.Tick.Label
	labelStyle.Rotation = 0
	labelStyle.XAlign = draw.XCenter
	labelStyle.YAlign = draw.YCenter

	edge := draw.LineStyle{Color: color.White, Width: vg.Points(1)}

	start := pc.startAngle * math.Pi / 180
	for i, s := range pc.slices {
		sweep := pc.percents[i] / 100 * 2 * math.Pi
		mid := start + sweep/2

		shift := vg.Length(s.Explode) * radius
		origin := vg.Point{
			X: center.X + shift*vg.Length(math.Cos(mid)),
			Y: center.Y + shift*vg.Length(math.Sin(mid)),
		}

		var wedge vg.Path
		wedge.Move(origin)
		wedge.Arc(origin, radius, start, sweep)
		wedge.Close()

		c.SetColor(pc.colors[i%len(pc.colors)])
		c.Fill(wedge)
		c.SetLineStyle(edge)
		c.Stroke(wedge)

		at := func(r float64) vg.Point {
			return vg.Point{
				X: origin.X + vg.Length(r)*radius*vg.Length(math.Cos(mid)),
				Y: origin.Y + vg.Length(r)*radius*vg.Length(math.Sin(mid)),
			}
		}
		c.FillText(labelStyle, at(1.12), s.Label)
		c.FillText(labelStyle, at(0.6), fmt.Sprintf(goPercentFormat(pc.format), pc.percents[i]))

		start += sweep
	}
}

func (pc *pieChart) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -pieExtent, pieExtent, -pieExtent, pieExtent
}

// goPercentFormat turns a printf-style autopct format into a Go verb.
// "%1.1f%%" is already valid Go, so most formats pass through.
func goPercentFormat(format string) string {
	if format == "" {
		return "%.1f%%"
	}
	return format
}
