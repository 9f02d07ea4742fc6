package plot

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"wdiviz/domain/chart"
	"wdiviz/domain/core"
	"wdiviz/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func size() chart.Size {
	return chart.Size{Width: 6, Height: 4}
}

func figures() []*chart.Figure {
	return []*chart.Figure{
		{
			ID:    core.FigureID("heatmap"),
			Kind:  chart.KindHeatmap,
			Style: chart.Style{Title: "Heatmap", Palette: chart.PaletteCoolwarm, Annotate: true, AnnotateFormat: "%.2f", Size: size()},
			Grid: &chart.Grid{
				XLabels: []string{"a", "b"},
				YLabels: []string{"a", "b"},
				Values:  [][]float64{{1, 0.3}, {0.3, math.NaN()}},
			},
		},
		{
			ID:         core.FigureID("bar"),
			Kind:       chart.KindBar,
			Style:      chart.Style{Title: "Bars", Palette: chart.PaletteMagma, XTickRotation: 90, Legend: chart.Legend{Title: "Year", Location: chart.LegendUpperLeft}, Size: size()},
			Categories: []string{"A", "B"},
			Series: []chart.Series{
				{Name: "2015", Points: []chart.Point{{Label: "A", Y: 1}, {Label: "B", Y: math.NaN()}}},
				{Name: "2016", Points: []chart.Point{{Label: "A", Y: 2}, {Label: "B", Y: 3}}},
			},
		},
		{
			ID:    core.FigureID("line"),
			Kind:  chart.KindLine,
			Style: chart.Style{Title: "Lines", Palette: chart.PaletteMagma, Markers: true, MarkerSize: 8, LineWidth: 2, XTicks: []float64{2015, 2016}, Size: size()},
			Series: []chart.Series{
				{Name: "A", Points: []chart.Point{{X: 2015, Y: 1}, {X: 2016, Y: 2}}},
				{Name: "B"},
			},
		},
		{
			ID:            core.FigureID("pie"),
			Kind:          chart.KindPie,
			Style:         chart.Style{Title: "Pie", Palette: chart.PaletteSet3, Size: size()},
			Slices:        []chart.Slice{{Label: "A", Value: 3, Explode: 0.03}, {Label: "B", Value: 1, Explode: 0.03}},
			StartAngle:    140,
			PercentFormat: "%1.1f%%",
		},
		{
			ID:    core.FigureID("histogram"),
			Kind:  chart.KindHistogram,
			Style: chart.Style{Title: "Histogram", Colors: []string{"skyblue"}, Size: size()},
			Bins:  []chart.Bin{{Min: 0, Max: 1, Count: 2}, {Min: 1, Max: 2, Count: 5}},
		},
	}
}

func TestRenderWritesOneFilePerFigure(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(dir, FormatPNG, internal.NewNopLogger())
	require.NoError(t, err)

	for _, fig := range figures() {
		require.NoError(t, r.Render(context.Background(), fig), fig.ID)
	}

	written := r.Written()
	require.Len(t, written, 5)
	for _, path := range written {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Equal(t, filepath.Join(dir, "heatmap.png"), written[0])
}

func TestRenderSVG(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(dir, FormatSVG, nil)
	require.NoError(t, err)

	require.NoError(t, r.Render(context.Background(), figures()[3]))
	_, err = os.Stat(filepath.Join(dir, "pie.svg"))
	assert.NoError(t, err)
}

func TestNewRendererRejectsUnknownFormat(t *testing.T) {
	_, err := NewRenderer(t.TempDir(), "gif", nil)
	assert.Error(t, err)
}

func TestBuildRejectsUnknownPalette(t *testing.T) {
	fig := figures()[1]
	fig.Style.Palette = "viridis"
	_, err := Build(fig)
	assert.Error(t, err)
}

func TestColorsFor(t *testing.T) {
	magma, err := colorsFor(chart.PaletteMagma, 5)
	require.NoError(t, err)
	assert.Len(t, magma, 5)

	set, err := colorsFor(chart.PaletteSet3, 14)
	require.NoError(t, err)
	assert.Equal(t, set[0], set[12])

	_, err = parseHex("#12345")
	assert.Error(t, err)
}
