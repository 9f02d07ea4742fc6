package ports

import (
	"context"

	"wdiviz/domain/chart"
	"wdiviz/domain/core"
	"wdiviz/domain/indicators"
)

// Renderer displays or exports an explicit figure handle.
// Implementations must not keep per-figure state between calls.
type Renderer interface {
	Name() string
	Render(ctx context.Context, fig *chart.Figure) error
}

// Finisher is implemented by renderers that buffer output until the run ends
type Finisher interface {
	Finish(ctx context.Context) error
}

// Tables are the intermediate results of a run, handed to sinks that export them
type Tables struct {
	Cleaned    *indicators.CleanedTable
	Transposed *indicators.TransposedTable
	Summaries  []indicators.SeriesSummary
	Matrix     *indicators.CorrelationMatrix
}

// TableSink is implemented by renderers that also export the tables
type TableSink interface {
	WriteTables(ctx context.Context, tables Tables) error
}

// OutputLocator is implemented by renderers that persist figures, to say where
// a figure went
type OutputLocator interface {
	OutputFor(id core.FigureID) string
}
