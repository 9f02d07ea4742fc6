package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wdiviz/domain/chart"
	"wdiviz/domain/core"
	"wdiviz/domain/run"
	"wdiviz/domain/stage"
	"wdiviz/internal"
	"wdiviz/internal/aggregate"
	"wdiviz/internal/charts"
	"wdiviz/internal/reshape"
	"wdiviz/ports"
)

// PipelineOptions selects what a run aggregates and builds
type PipelineOptions struct {
	Indicators []string
	Years      []string

	// Figures restricts the builders to these names, in this order. Empty runs
	// every builder.
	Figures []string

	ConfigHash  core.Hash
	CodeVersion string
}

// Pipeline runs one invocation: load, aggregate, build, render, export.
// Only a load failure aborts a run; every other stage fails on its own and is
// recorded in the run report.
type Pipeline struct {
	loader    *reshape.Loader
	builder   *charts.Builder
	renderers []ports.Renderer
	reporter  ports.ReportWriter
	options   PipelineOptions
	logger    *internal.Logger
}

// Result is everything a run produced
type Result struct {
	Report    *run.RunReport
	Tables    *reshape.Result
	Aggregate *aggregate.Result
	Figures   []*chart.Figure
}

// NewPipeline creates a pipeline. Renderers run in the given order.
func NewPipeline(loader *reshape.Loader, builder *charts.Builder, options PipelineOptions, logger *internal.Logger, renderers ...ports.Renderer) *Pipeline {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if options.CodeVersion == "" {
		options.CodeVersion = internal.Version
	}
	return &Pipeline{
		loader:    loader,
		builder:   builder,
		renderers: renderers,
		options:   options,
		logger:    logger,
	}
}

// WithReport makes the run end by writing its report
func (p *Pipeline) WithReport(w ports.ReportWriter) *Pipeline {
	p.reporter = w
	return p
}

// Run executes every stage over the extract at path. The returned Result and
// its Report are populated even when the load fails.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	report := run.NewRunReport(core.NewRunID(), path)
	report.Indicators = append([]string(nil), p.options.Indicators...)
	report.Years = append([]string(nil), p.options.Years...)
	result := &Result{Report: report}

	p.logger.Info("[Pipeline] run %s started on %s", report.RunID, path)

	started := time.Now()
	tables, err := p.loader.Load(ctx, path)
	report.Pipeline.AddResult(stage.NewStageResult(stage.StageLoad, stage.StageKindLoad, started, err))
	if err != nil {
		p.logger.Error("[Pipeline] load failed: %v", err)
		report.FinishedAt = core.Now()
		return result, fmt.Errorf("load %s: %w", path, err)
	}
	result.Tables = tables
	report.CleanedRows = tables.Cleaned.Len()
	report.TransposedRows = len(tables.Transposed.Rows)
	report.Fingerprint = run.NewRunFingerprint(core.Hash(tables.Raw.Hash), p.options.ConfigHash, p.options.CodeVersion)

	result.Aggregate = p.aggregate(report, tables)
	if err := ctx.Err(); err != nil {
		return result, err
	}

	p.writeTables(ctx, report, tables, result.Aggregate)

	inputs := charts.Inputs{Table: tables.Cleaned}
	if result.Aggregate != nil {
		inputs.Matrix = result.Aggregate.Matrix
		inputs.Years = result.Aggregate.Years
	}
	for _, name := range p.figureNames() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		fig := p.build(report, name, inputs)
		if fig == nil {
			continue
		}
		result.Figures = append(result.Figures, fig)
		p.render(ctx, report, fig)
	}

	p.finish(ctx, report)
	report.FinishedAt = core.Now()

	if p.reporter != nil {
		started := time.Now()
		written, err := p.reporter.Write(ctx, report)
		report.Pipeline.AddResult(stage.NewStageResult(stage.StageReport, stage.StageKindExport, started, err))
		if err != nil {
			p.logger.Error("[Pipeline] report failed: %v", err)
		} else {
			p.logger.Debug("[Pipeline] report files: %s", strings.Join(written, ", "))
		}
	}

	overall := report.Pipeline.Overall
	p.logger.Info("[Pipeline] run %s finished: %d figures, %d stages ok, %d failed",
		report.RunID, len(result.Figures), overall.Successful, overall.Failed)
	return result, nil
}

// aggregate describes and correlates the configured indicators. Missing
// indicators are warnings, not failures.
func (p *Pipeline) aggregate(report *run.RunReport, tables *reshape.Result) *aggregate.Result {
	started := time.Now()
	agg, err := aggregate.Aggregate(tables.Cleaned, p.options.Indicators, p.options.Years)
	res := stage.NewStageResult(stage.StageAggregate, stage.StageKindAggregate, started, err)
	if err != nil {
		p.logger.Error("[Pipeline] aggregation failed: %v", err)
		report.Pipeline.AddResult(res)
		return nil
	}

	for _, missing := range agg.MissingErrors() {
		p.logger.Warn("[Pipeline] %v", missing)
		res.Warnings = append(res.Warnings, missing.Error())
	}
	report.Pipeline.AddResult(res)
	report.Missing = agg.Missing
	report.Summaries = agg.Summaries
	report.Matrix = agg.Matrix
	return agg
}

// writeTables hands the intermediate tables to every renderer that exports them
func (p *Pipeline) writeTables(ctx context.Context, report *run.RunReport, tables *reshape.Result, agg *aggregate.Result) {
	payload := ports.Tables{Cleaned: tables.Cleaned, Transposed: tables.Transposed}
	if agg != nil {
		payload.Summaries = agg.Summaries
		payload.Matrix = agg.Matrix
	}
	for _, r := range p.renderers {
		sink, ok := r.(ports.TableSink)
		if !ok {
			continue
		}
		started := time.Now()
		err := sink.WriteTables(ctx, payload)
		name := stage.StageName(fmt.Sprintf("%s:%s", stage.StageTables, r.Name()))
		report.Pipeline.AddResult(stage.NewStageResult(name, stage.StageKindExport, started, err))
		if err != nil {
			p.logger.Error("[Pipeline] %s tables failed: %v", r.Name(), err)
		}
	}
}

func (p *Pipeline) figureNames() []string {
	if len(p.options.Figures) > 0 {
		return p.options.Figures
	}
	return p.builder.Names()
}

// build runs one builder. A failing or panicking builder yields nil.
func (p *Pipeline) build(report *run.RunReport, name string, in charts.Inputs) *chart.Figure {
	started := time.Now()
	fig, err := safeBuild(p.builder, name, in)
	report.Pipeline.AddResult(stage.NewStageResult(stage.BuildStage(name), stage.StageKindBuild, started, err))
	if err != nil {
		p.logger.Error("[Pipeline] builder %s failed: %v", name, err)
		return nil
	}
	report.Figures = append(report.Figures, run.FigureRecord{ID: fig.ID, Kind: fig.Kind, Title: fig.Style.Title})
	p.logger.Debug("[Pipeline] built %s figure %s", fig.Kind, fig.ID)
	return fig
}

func safeBuild(b *charts.Builder, name string, in charts.Inputs) (fig *chart.Figure, err error) {
	defer func() {
		if r := recover(); r != nil {
			fig, err = nil, fmt.Errorf("builder %s panicked: %v", name, r)
		}
	}()
	return b.Build(name, in)
}

func (p *Pipeline) render(ctx context.Context, report *run.RunReport, fig *chart.Figure) {
	record, _ := report.Figure(fig.ID)
	for _, r := range p.renderers {
		started := time.Now()
		err := r.Render(ctx, fig)
		name := stage.RenderStage(r.Name(), fig.ID.String())
		report.Pipeline.AddResult(stage.NewStageResult(name, stage.StageKindRender, started, err))
		if err != nil {
			p.logger.Error("[Pipeline] %s could not render %s: %v", r.Name(), fig.ID, err)
			continue
		}
		if locator, ok := r.(ports.OutputLocator); ok && record != nil {
			record.Outputs = append(record.Outputs, locator.OutputFor(fig.ID))
		}
	}
}

func (p *Pipeline) finish(ctx context.Context, report *run.RunReport) {
	for _, r := range p.renderers {
		finisher, ok := r.(ports.Finisher)
		if !ok {
			continue
		}
		started := time.Now()
		err := finisher.Finish(ctx)
		report.Pipeline.AddResult(stage.NewStageResult(stage.FinishStage(r.Name()), stage.StageKindExport, started, err))
		if err != nil {
			p.logger.Error("[Pipeline] %s finish failed: %v", r.Name(), err)
		}
	}
}
