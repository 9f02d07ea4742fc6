// Package plot renders figure handles to image files with gonum/plot.
package plot

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"wdiviz/domain/chart"
	"wdiviz/domain/core"
	"wdiviz/internal"
	apperrors "wdiviz/internal/errors"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Supported output formats
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// Renderer writes one image per figure into a directory
type Renderer struct {
	dir     string
	format  string
	logger  *internal.Logger
	written []string
}

// NewRenderer creates a renderer writing format files into dir
func NewRenderer(dir, format string, logger *internal.Logger) (*Renderer, error) {
	if format != FormatPNG && format != FormatSVG {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported figure format %q", format))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.ExportError(dir, err)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Renderer{dir: dir, format: format, logger: logger}, nil
}

// Name identifies the renderer in run reports
func (r *Renderer) Name() string {
	return "plot"
}

// Written lists the files produced so far
func (r *Renderer) Written() []string {
	return append([]string(nil), r.written...)
}

// Render draws fig and saves it as <dir>/<figure id>.<format>
func (r *Renderer) Render(ctx context.Context, fig *chart.Figure) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := Build(fig)
	if err != nil {
		return apperrors.RenderError(r.Name(), fmt.Errorf("figure %s: %w", fig.ID, err))
	}

	path := r.OutputFor(fig.ID)
	width := vg.Length(fig.Style.Size.Width) * vg.Inch
	height := vg.Length(fig.Style.Size.Height) * vg.Inch
	if err := p.Save(width, height, path); err != nil {
		return apperrors.ExportError(path, err)
	}

	r.written = append(r.written, path)
	r.logger.Debug("[PlotRenderer] %s figure %s saved to %s", fig.Kind, fig.ID, path)
	return nil
}

// Build turns a figure handle into a gonum plot without saving it
func Build(fig *chart.Figure) (*plot.Plot, error) {
	if err := fig.Validate(); err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = fig.Style.Title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = fig.Style.XLabel
	p.Y.Label.Text = fig.Style.YLabel
	placeLegend(p, fig.Style.Legend.Location)

	var err error
	switch fig.Kind {
	case chart.KindHeatmap:
		err = addHeatmap(p, fig)
	case chart.KindBar:
		err = addBars(p, fig)
	case chart.KindLine:
		err = addLines(p, fig)
	case chart.KindPie:
		err = addPie(p, fig)
	case chart.KindHistogram:
		err = addHistogram(p, fig)
	default:
		err = fmt.Errorf("unsupported kind %q", fig.Kind)
	}
	if err != nil {
		return nil, err
	}

	if fig.Style.XTickRotation != 0 {
		p.X.Tick.Label.Rotation = fig.Style.XTickRotation * math.Pi / 180
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
	return p, nil
}

func placeLegend(p *plot.Plot, location string) {
	switch location {
	case chart.LegendUpperLeft:
		p.Legend.Top, p.Legend.Left = true, true
	case chart.LegendLowerLeft:
		p.Legend.Top, p.Legend.Left = false, true
	}
}

// heatGrid puts row 0 of the matrix at the top
type heatGrid struct {
	values [][]float64
}

func (g heatGrid) Dims() (c, r int) { return len(g.values[0]), len(g.values) }
func (g heatGrid) Z(c, r int) float64 { return g.values[len(g.values)-1-r][c] }
func (g heatGrid) X(c int) float64 { return float64(c) }
func (g heatGrid) Y(r int) float64 { return float64(r) }
func (g heatGrid) Min() float64 { return -1 }
func (g heatGrid) Max() float64 { return 1 }

func addHeatmap(p *plot.Plot, fig *chart.Figure) error {
	grid := heatGrid{values: fig.Grid.Values}
	hm := plotter.NewHeatMap(grid, divergingPalette(255))
	hm.NaN = namedColors["grey"]
	p.Add(hm)

	if fig.Style.Annotate {
		var xys plotter.XYs
		var labels []string
		cols, rows := grid.Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				z := grid.Z(c, r)
				if math.IsNaN(z) {
					continue
				}
				xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
				labels = append(labels, fmt.Sprintf(fig.Style.AnnotateFormat, z))
			}
		}
		if len(xys) > 0 {
			annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
			if err != nil {
				return err
			}
			for i := range annotations.TextStyle {
				annotations.TextStyle[i].XAlign = draw.XCenter
				annotations.TextStyle[i].YAlign = draw.YCenter
			}
			p.Add(annotations)
		}
	}

	yLabels := make([]string, len(fig.Grid.YLabels))
	for i, l := range fig.Grid.YLabels {
		yLabels[len(yLabels)-1-i] = l
	}
	p.NominalX(fig.Grid.XLabels...)
	p.NominalY(yLabels...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	return nil
}

func addBars(p *plot.Plot, fig *chart.Figure) error {
	colors, err := colorsFor(fig.Style.Palette, len(fig.Series))
	if err != nil {
		return err
	}

	width := vg.Points(60 / float64(len(fig.Series)+1))
	for i, s := range fig.Series {
		values := make(plotter.Values, len(s.Points))
		for j, pt := range s.Points {
			if !math.IsNaN(pt.Y) {
				values[j] = pt.Y
			}
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return err
		}
		bars.Color = colors[i]
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = vg.Length(float64(i)-float64(len(fig.Series)-1)/2) * width
		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}
	p.NominalX(fig.Categories...)
	return nil
}

func addLines(p *plot.Plot, fig *chart.Figure) error {
	colors, err := colorsFor(fig.Style.Palette, len(fig.Series))
	if err != nil {
		return err
	}

	for i, s := range fig.Series {
		if len(s.Points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(s.Points))
		for j, pt := range s.Points {
			xys[j] = plotter.XY{X: pt.X, Y: pt.Y}
		}

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(fig.Style.LineWidth)
		p.Add(line)
		if fig.Style.Markers {
			points.Shape = draw.CircleGlyph{}
			points.Color = colors[i]
			points.Radius = vg.Points(fig.Style.MarkerSize / 2)
			p.Add(points)
			p.Legend.Add(s.Name, line, points)
		} else {
			p.Legend.Add(s.Name, line)
		}
	}

	if len(fig.Style.XTicks) > 0 {
		ticks := make(plot.ConstantTicks, len(fig.Style.XTicks))
		for i, v := range fig.Style.XTicks {
			ticks[i] = plot.Tick{Value: v, Label: strconv.FormatFloat(v, 'f', -1, 64)}
		}
		p.X.Tick.Marker = ticks
	}
	return nil
}

func addPie(p *plot.Plot, fig *chart.Figure) error {
	colors, err := colorsFor(fig.Style.Palette, len(fig.Slices))
	if err != nil {
		return err
	}
	p.Add(&pieChart{
		slices:     fig.Slices,
		percents:   fig.Percentages(),
		colors:     colors,
		startAngle: fig.StartAngle,
		format:     fig.PercentFormat,
	})
	p.HideAxes()
	return nil
}

func addHistogram(p *plot.Plot, fig *chart.Figure) error {
	var fill color.Color = namedColors["skyblue"]
	if len(fig.Style.Colors) > 0 {
		c, err := namedColor(fig.Style.Colors[0])
		if err != nil {
			return err
		}
		fill = c
	}

	bins := make([]plotter.HistogramBin, len(fig.Bins))
	for i, b := range fig.Bins {
		bins[i] = plotter.HistogramBin{Min: b.Min, Max: b.Max, Weight: float64(b.Count)}
	}
	h := &plotter.Histogram{
		Bins:      bins,
		Width:     fig.Bins[0].Max - fig.Bins[0].Min,
		FillColor: fill,
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(h)
	return nil
}

// OutputFor returns the file a figure is saved to
func (r *Renderer) OutputFor(id core.FigureID) string {
	return filepath.Join(r.dir, id.String()+"."+r.format)
}
