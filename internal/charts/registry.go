package charts

import (
	"fmt"

	"wdiviz/domain/chart"
	"wdiviz/domain/core"
	"wdiviz/domain/indicators"
)

// Inputs are the shared, read-only inputs of every builder
type Inputs struct {
	Table  *indicators.CleanedTable
	Matrix *indicators.CorrelationMatrix
	// Years the matrix was pivoted over
	Years []string
}

// Entry binds a figure name to its builder
type Entry struct {
	Name  string
	Kind  chart.Kind
	Build func(in Inputs) (*chart.Figure, error)
}

// Entries lists the builders in run order
func (b *Builder) Entries() []Entry {
	return []Entry{
		{Name: NameHeatmap, Kind: chart.KindHeatmap, Build: func(in Inputs) (*chart.Figure, error) { return b.Heatmap(in.Matrix, in.Years) }},
		{Name: NameUrbanGrowthBar, Kind: chart.KindBar, Build: func(in Inputs) (*chart.Figure, error) { return b.UrbanGrowthBar(in.Table) }},
		{Name: NameUrbanGrowthLine, Kind: chart.KindLine, Build: func(in Inputs) (*chart.Figure, error) { return b.UrbanGrowthLine(in.Table) }},
		{Name: NameLargestCityPie, Kind: chart.KindPie, Build: func(in Inputs) (*chart.Figure, error) { return b.LargestCityPie(in.Table) }},
		{Name: NameRuralHistogram, Kind: chart.KindHistogram, Build: func(in Inputs) (*chart.Figure, error) { return b.RuralHistogram(in.Table) }},
	}
}

// Names lists the figure names in run order
func (b *Builder) Names() []string {
	entries := b.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Build runs a single builder by name
func (b *Builder) Build(name string, in Inputs) (*chart.Figure, error) {
	for _, e := range b.Entries() {
		if e.Name == name {
			return e.Build(in)
		}
	}
	return nil, fmt.Errorf("%w: %q (known: %v)", core.ErrUnknownChart, name, b.Names())
}
