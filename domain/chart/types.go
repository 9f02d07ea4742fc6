// Package chart defines the figure handles passed from the chart builders to a
// renderer. A Figure carries everything a renderer needs, so no renderer has to
// fall back on its own defaults for anything but cosmetics.
package chart

import (
	"fmt"
	"math"

	"wdiviz/domain/core"
	"wdiviz/domain/indicators"
)

// Kind is the chart family of a figure
type Kind string

const (
	KindHeatmap   Kind = "heatmap"
	KindBar       Kind = "bar"
	KindLine      Kind = "line"
	KindPie       Kind = "pie"
	KindHistogram Kind = "histogram"
)

// Legend locations
const (
	LegendUpperLeft = "upper left"
	LegendLowerLeft = "lower left"
	LegendNone      = "none"
)

// Palettes named by the builders. Renderers map them to concrete colours.
const (
	PaletteCoolwarm = "coolwarm"
	PaletteMagma    = "magma"
	PaletteSet3     = "Set3"
	PaletteSingle   = "single"
)

// Size is the figure size in inches
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Legend describes legend title and placement
type Legend struct {
	Title    string `json:"title,omitempty"`
	Location string `json:"location"`
}

// Style holds the cosmetic parameters of a figure
type Style struct {
	Title          string    `json:"title"`
	XLabel         string    `json:"x_label,omitempty"`
	YLabel         string    `json:"y_label,omitempty"`
	Palette        string    `json:"palette"`
	Colors         []string  `json:"colors,omitempty"`
	Legend         Legend    `json:"legend"`
	XTickRotation  float64   `json:"x_tick_rotation,omitempty"`
	XTicks         []float64 `json:"x_ticks,omitempty"`
	Size           Size      `json:"size"`
	Annotate       bool      `json:"annotate,omitempty"`
	AnnotateFormat string    `json:"annotate_format,omitempty"`
	Markers        bool      `json:"markers,omitempty"`
	MarkerSize     float64   `json:"marker_size,omitempty"`
	LineWidth      float64   `json:"line_width,omitempty"`
}

// Encoding names the long-form columns mapped to each visual channel
type Encoding struct {
	X     string `json:"x,omitempty"`
	Y     string `json:"y,omitempty"`
	Group string `json:"group,omitempty"`
}

// Point is one observation of a series. Label is used for categorical axes.
type Point struct {
	Label string  `json:"label,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Series is a named group of points (a bar colour group or a line)
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Slice is one pie wedge
type Slice struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Explode float64 `json:"explode"`
}

// Bin is one histogram bucket covering [Min, Max)
type Bin struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Grid is a labelled matrix. NaN marks a missing cell.
type Grid struct {
	XLabels []string    `json:"x_labels"`
	YLabels []string    `json:"y_labels"`
	Values  [][]float64 `json:"values"`
}

// Figure is an explicit figure handle produced by a chart builder
type Figure struct {
	ID       core.FigureID `json:"id"`
	Kind     Kind          `json:"kind"`
	Encoding Encoding      `json:"encoding"`
	Style    Style         `json:"style"`

	// Bar: Categories are the x labels, one Series per group.
	// Line: one Series per line, X holds the numeric x value.
	Categories []string `json:"categories,omitempty"`
	Series     []Series `json:"series,omitempty"`

	Slices        []Slice `json:"slices,omitempty"`
	StartAngle    float64 `json:"start_angle,omitempty"`
	PercentFormat string  `json:"percent_format,omitempty"`

	Bins   []Bin     `json:"bins,omitempty"`
	Values []float64 `json:"values,omitempty"`

	Grid *Grid `json:"grid,omitempty"`

	// Long is the long-form table the figure was built from, when there is one
	Long []indicators.LongRecord `json:"-"`
}

// Validate checks the figure is complete for its kind
func (f *Figure) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("figure has no ID")
	}
	if f.Style.Title == "" {
		return fmt.Errorf("figure %s has no title", f.ID)
	}
	if f.Style.Size.Width <= 0 || f.Style.Size.Height <= 0 {
		return fmt.Errorf("figure %s has no size", f.ID)
	}

	switch f.Kind {
	case KindBar:
		if len(f.Categories) == 0 || len(f.Series) == 0 {
			return fmt.Errorf("bar figure %s has no data", f.ID)
		}
		for _, s := range f.Series {
			if len(s.Points) != len(f.Categories) {
				return fmt.Errorf("bar figure %s: series %s has %d points for %d categories", f.ID, s.Name, len(s.Points), len(f.Categories))
			}
		}
	case KindLine:
		if len(f.Series) == 0 {
			return fmt.Errorf("line figure %s has no series", f.ID)
		}
	case KindPie:
		if len(f.Slices) == 0 {
			return fmt.Errorf("pie figure %s has no slices", f.ID)
		}
		for _, s := range f.Slices {
			if s.Value < 0 || math.IsNaN(s.Value) {
				return fmt.Errorf("pie figure %s: slice %s has invalid value %v", f.ID, s.Label, s.Value)
			}
		}
	case KindHistogram:
		if len(f.Bins) == 0 {
			return fmt.Errorf("histogram figure %s has no bins", f.ID)
		}
	case KindHeatmap:
		if f.Grid == nil || len(f.Grid.Values) != len(f.Grid.YLabels) {
			return fmt.Errorf("heatmap figure %s has no grid", f.ID)
		}
		for _, row := range f.Grid.Values {
			if len(row) != len(f.Grid.XLabels) {
				return fmt.Errorf("heatmap figure %s has a ragged grid", f.ID)
			}
		}
	default:
		return fmt.Errorf("figure %s has unknown kind %q", f.ID, f.Kind)
	}
	return nil
}

// Percentages returns each pie slice as a share of the total, in percent
func (f *Figure) Percentages() []float64 {
	total := 0.0
	for _, s := range f.Slices {
		total += s.Value
	}
	out := make([]float64, len(f.Slices))
	if total == 0 {
		return out
	}
	for i, s := range f.Slices {
		out[i] = s.Value / total * 100
	}
	return out
}
