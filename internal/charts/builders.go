// Package charts builds explicit figure handles from the cleaned table and the
// correlation matrix. Builders are stateless and never modify their inputs.
package charts

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"wdiviz/domain/chart"
	"wdiviz/domain/core"
	"wdiviz/domain/indicators"

	"gonum.org/v1/gonum/floats"
)

// Indicators charted by the builders
const (
	UrbanGrowthIndicator     = "Urban population growth (annual %)"
	LargestCityIndicator     = "Population in the largest city (% of urban population)"
	RuralPopulationIndicator = "Rural population"
)

const (
	urbanGrowthValueName     = "Urban Population Growth (Annual %)"
	largestCityValueName     = "Population in the Largest City (% of Urban Population)"
	ruralPopulationValueName = "Rural Population"

	defaultExplode           = 0.03
	defaultPieStartAngle     = 140
	defaultPercentFormat     = "%1.1f%%"
	defaultHeatmapAnnotation = "%.2f"
	defaultHistogramBins     = 20
)

// Figure names, also used as figure IDs
const (
	NameHeatmap         = "heatmap"
	NameUrbanGrowthBar  = "urban-growth-bar"
	NameUrbanGrowthLine = "urban-growth-line"
	NameLargestCityPie  = "largest-city-pie"
	NameRuralHistogram  = "rural-histogram"
)

// Config holds the selections made by the builders
type Config struct {
	FirstYear     int     `yaml:"first_year" validate:"required,gte=1960"`
	LastYear      int     `yaml:"last_year" validate:"required,gtefield=FirstYear"`
	PieYear       string  `yaml:"pie_year" validate:"required,len=4,numeric"`
	TopCountries  int     `yaml:"top_countries" validate:"required,gte=1"`
	Explode       float64 `yaml:"explode" validate:"gte=0,lte=1"`
	HistogramBins int     `yaml:"histogram_bins" validate:"required,gte=1"`
}

// DefaultConfig returns the selections of the reference run
func DefaultConfig() Config {
	return Config{
		FirstYear:     2015,
		LastYear:      2019,
		PieYear:       "2019",
		TopCountries:  6,
		Explode:       defaultExplode,
		HistogramBins: defaultHistogramBins,
	}
}

// Builder produces the five figures of a run
type Builder struct {
	config Config
}

// NewBuilder creates a builder with the given selections
func NewBuilder(config Config) *Builder {
	return &Builder{config: config}
}

// Config returns the builder selections
func (b *Builder) Config() Config {
	return b.config
}

func (b *Builder) window() []string {
	return WindowYears(b.config.FirstYear, b.config.LastYear)
}

func (b *Builder) windowLabel() string {
	return fmt.Sprintf("%d - %d", b.config.FirstYear, b.config.LastYear)
}

func validated(fig *chart.Figure) (*chart.Figure, error) {
	if err := fig.Validate(); err != nil {
		return nil, err
	}
	return fig, nil
}

func figureSize(w, h float64) chart.Size {
	return chart.Size{Width: w, Height: h}
}

// Heatmap draws the correlation matrix. years are the value columns the
// matrix was pivoted over and name the figure.
func (b *Builder) Heatmap(m *indicators.CorrelationMatrix, years []string) (*chart.Figure, error) {
	if m == nil || m.Size() == 0 {
		return nil, core.NewInsufficientDataError(NameHeatmap, 1, 0)
	}

	grid := &chart.Grid{
		XLabels: append([]string(nil), m.Labels...),
		YLabels: append([]string(nil), m.Labels...),
		Values:  make([][]float64, m.Size()),
	}
	for i := range m.R {
		grid.Values[i] = append([]float64(nil), m.R[i]...)
	}

	fig := &chart.Figure{
		ID:       core.FigureID(NameHeatmap),
		Kind:     chart.KindHeatmap,
		Encoding: chart.Encoding{X: indicators.ColumnSeries, Y: indicators.ColumnSeries},
		Style: chart.Style{
			Title:          heatmapTitle(years),
			XLabel:         indicators.ColumnSeries,
			YLabel:         indicators.ColumnSeries,
			Palette:        chart.PaletteCoolwarm,
			Legend:         chart.Legend{Location: chart.LegendNone},
			Size:           figureSize(12, 8),
			Annotate:       true,
			AnnotateFormat: defaultHeatmapAnnotation,
		},
		Grid: grid,
	}
	return validated(fig)
}

func heatmapTitle(years []string) string {
	const title = "Correlation Heatmap between Indicators"
	if len(years) == 0 {
		return title
	}
	return title + " for " + strings.Join(years, ", ")
}

// UrbanGrowthBar groups the yearly urban growth of every country
func (b *Builder) UrbanGrowthBar(table *indicators.CleanedTable) (*chart.Figure, error) {
	long, err := b.meltRequired(table, UrbanGrowthIndicator, NameUrbanGrowthBar)
	if err != nil {
		return nil, err
	}

	countries := countriesInOrder(long)
	cells := meanBy(long, func(lr indicators.LongRecord) cellKey {
		return cellKey{group: strconv.Itoa(lr.Year), label: lr.Country}
	})

	var series []chart.Series
	for _, year := range yearsInOrder(long) {
		group := strconv.Itoa(year)
		s := chart.Series{Name: group}
		for i, country := range countries {
			y, ok := cells[cellKey{group: group, label: country}]
			if !ok {
				y = math.NaN()
			}
			s.Points = append(s.Points, chart.Point{Label: country, X: float64(i), Y: y})
		}
		series = append(series, s)
	}

	fig := &chart.Figure{
		ID:       core.FigureID(NameUrbanGrowthBar),
		Kind:     chart.KindBar,
		Encoding: chart.Encoding{X: indicators.ColumnCountry, Y: urbanGrowthValueName, Group: "Year"},
		Style: chart.Style{
			Title:         fmt.Sprintf("%s in %s", urbanGrowthValueName, b.windowLabel()),
			XLabel:        indicators.ColumnCountry,
			YLabel:        urbanGrowthValueName,
			Palette:       chart.PaletteMagma,
			Legend:        chart.Legend{Title: "Year", Location: chart.LegendUpperLeft},
			XTickRotation: 90,
			Size:          figureSize(12, 8),
		},
		Categories: countries,
		Series:     series,
		Long:       long,
	}
	return validated(fig)
}

// UrbanGrowthLine draws one urban growth line per country
func (b *Builder) UrbanGrowthLine(table *indicators.CleanedTable) (*chart.Figure, error) {
	long, err := b.meltRequired(table, UrbanGrowthIndicator, NameUrbanGrowthLine)
	if err != nil {
		return nil, err
	}

	cells := meanBy(long, func(lr indicators.LongRecord) cellKey {
		return cellKey{group: lr.Country, label: strconv.Itoa(lr.Year)}
	})
	years := yearsInOrder(long)

	var series []chart.Series
	for _, country := range countriesInOrder(long) {
		s := chart.Series{Name: country}
		for _, year := range years {
			if y, ok := cells[cellKey{group: country, label: strconv.Itoa(year)}]; ok {
				s.Points = append(s.Points, chart.Point{Label: strconv.Itoa(year), X: float64(year), Y: y})
			}
		}
		series = append(series, s)
	}

	ticks := make([]float64, 0, b.config.LastYear-b.config.FirstYear+1)
	for y := b.config.FirstYear; y <= b.config.LastYear; y++ {
		ticks = append(ticks, float64(y))
	}

	fig := &chart.Figure{
		ID:       core.FigureID(NameUrbanGrowthLine),
		Kind:     chart.KindLine,
		Encoding: chart.Encoding{X: "Year", Y: urbanGrowthValueName, Group: indicators.ColumnCountry},
		Style: chart.Style{
			Title:      urbanGrowthValueName + " Over the Years",
			XLabel:     "Year",
			YLabel:     urbanGrowthValueName,
			Palette:    chart.PaletteMagma,
			Legend:     chart.Legend{Title: indicators.ColumnCountry, Location: chart.LegendLowerLeft},
			XTicks:     ticks,
			Size:       figureSize(12, 8),
			Markers:    true,
			MarkerSize: 8,
			LineWidth:  2,
		},
		Series: series,
		Long:   long,
	}
	return validated(fig)
}

// LargestCityPie shares out the largest-city population of the top countries
// in the pie year. Fewer candidates than requested slices is an error.
func (b *Builder) LargestCityPie(table *indicators.CleanedTable) (*chart.Figure, error) {
	year := b.config.PieYear
	if !table.HasYear(year) {
		return nil, core.NewMissingColumnError(year)
	}
	yearInt, err := strconv.Atoi(year)
	if err != nil {
		return nil, core.NewTypeCoercionError("Year", 0, year)
	}

	var candidates []indicators.LongRecord
	for _, rec := range table.FilterSeries(LargestCityIndicator).Records {
		if v := rec.Value(year); v.Valid {
			candidates = append(candidates, indicators.LongRecord{
				Country: rec.Country,
				Year:    yearInt,
				Value:   v.Float,
				Series:  rec.Series,
			})
		}
	}
	if len(candidates) < b.config.TopCountries {
		return nil, core.NewInsufficientDataError(NameLargestCityPie, b.config.TopCountries, len(candidates))
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Value > candidates[j].Value })
	top := candidates[:b.config.TopCountries]

	slices := make([]chart.Slice, len(top))
	for i, lr := range top {
		slices[i] = chart.Slice{Label: lr.Country, Value: lr.Value, Explode: b.config.Explode}
	}

	fig := &chart.Figure{
		ID:       core.FigureID(NameLargestCityPie),
		Kind:     chart.KindPie,
		Encoding: chart.Encoding{X: indicators.ColumnCountry, Y: year},
		Style: chart.Style{
			Title:   fmt.Sprintf("%s (%s)", largestCityValueName, year),
			Palette: chart.PaletteSet3,
			Legend:  chart.Legend{Location: chart.LegendNone},
			Size:    figureSize(10, 8),
		},
		Slices:        slices,
		StartAngle:    defaultPieStartAngle,
		PercentFormat: defaultPercentFormat,
		Long:          append([]indicators.LongRecord(nil), top...),
	}
	return validated(fig)
}

// RuralHistogram pools rural population over every country and window year
func (b *Builder) RuralHistogram(table *indicators.CleanedTable) (*chart.Figure, error) {
	long, err := b.meltRequired(table, RuralPopulationIndicator, NameRuralHistogram)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(long))
	for i, lr := range long {
		values[i] = lr.Value
	}

	fig := &chart.Figure{
		ID:       core.FigureID(NameRuralHistogram),
		Kind:     chart.KindHistogram,
		Encoding: chart.Encoding{X: ruralPopulationValueName},
		Style: chart.Style{
			Title:   fmt.Sprintf("Histogram for %s (%d-%d)", ruralPopulationValueName, b.config.FirstYear, b.config.LastYear),
			XLabel:  ruralPopulationValueName,
			YLabel:  "Frequency",
			Palette: chart.PaletteSingle,
			Colors:  []string{"skyblue"},
			Legend:  chart.Legend{Location: chart.LegendNone},
			Size:    figureSize(12, 8),
		},
		Bins:   Histogram(values, b.config.HistogramBins),
		Values: values,
		Long:   long,
	}
	return validated(fig)
}

// Histogram counts values into n equal-width bins spanning their range. The
// last bin is closed on the right. A zero range is widened by 0.5 each side.
func Histogram(values []float64, n int) []chart.Bin {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges := floats.Span(make([]float64, n+1), lo, hi)
	bins := make([]chart.Bin, n)
	for i := range bins {
		bins[i] = chart.Bin{Min: edges[i], Max: edges[i+1]}
	}
	for _, v := range values {
		i := sort.SearchFloat64s(edges, v)
		if i == len(edges) || edges[i] != v {
			i--
		}
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		bins[i].Count++
	}
	return bins
}

func (b *Builder) meltRequired(table *indicators.CleanedTable, series, name string) ([]indicators.LongRecord, error) {
	long, err := Melt(table, series, b.window())
	if err != nil {
		return nil, err
	}
	if len(long) == 0 {
		return nil, fmt.Errorf("%s: %w", name, core.NewMissingIndicatorError(series))
	}
	return long, nil
}

type cellKey struct {
	group string
	label string
}

// meanBy averages long records sharing a key
func meanBy(long []indicators.LongRecord, key func(indicators.LongRecord) cellKey) map[cellKey]float64 {
	sums := make(map[cellKey]float64)
	counts := make(map[cellKey]int)
	for _, lr := range long {
		k := key(lr)
		sums[k] += lr.Value
		counts[k]++
	}
	for k, n := range counts {
		sums[k] /= float64(n)
	}
	return sums
}

func countriesInOrder(long []indicators.LongRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, lr := range long {
		if !seen[lr.Country] {
			seen[lr.Country] = true
			out = append(out, lr.Country)
		}
	}
	return out
}

func yearsInOrder(long []indicators.LongRecord) []int {
	seen := make(map[int]bool)
	var out []int
	for _, lr := range long {
		if !seen[lr.Year] {
			seen[lr.Year] = true
			out = append(out, lr.Year)
		}
	}
	sort.Ints(out)
	return out
}
