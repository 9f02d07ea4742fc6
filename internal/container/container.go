package container

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"wdiviz/adapters/render/console"
	"wdiviz/adapters/render/excel"
	"wdiviz/adapters/render/plot"
	"wdiviz/adapters/report"
	"wdiviz/adapters/worldbank"
	"wdiviz/app"
	"wdiviz/internal"
	"wdiviz/internal/charts"
	"wdiviz/internal/config"
	"wdiviz/internal/reshape"
	"wdiviz/ports"
)

// WorkbookFile is the name of the exported workbook inside the output directory
const WorkbookFile = "wdi.xlsx"

// Container holds all application dependencies for one run
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	Reader    *worldbank.Reader
	Loader    *reshape.Loader
	Builder   *charts.Builder
	Renderers []ports.Renderer
	Reporter  ports.ReportWriter
	Pipeline  *app.Pipeline
}

// Options adjusts the wiring for a single command
type Options struct {
	// Display is where the console renderer writes. Nil means stdout.
	Display io.Writer

	// Figures restricts the run to these builders
	Figures []string
}

// New wires the pipeline described by cfg
func New(cfg *config.Config, logger *internal.Logger, opts Options) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Reader:  worldbank.NewReader(logger),
		Builder: charts.NewBuilder(cfg.Pipeline.Charts),
	}
	c.Loader = reshape.NewLoader(c.Reader, cfg.Pipeline.ReshapeOptions(), logger)

	if err := c.initRenderers(opts); err != nil {
		return nil, err
	}

	c.Pipeline = app.NewPipeline(c.Loader, c.Builder, app.PipelineOptions{
		Indicators:  cfg.Pipeline.Indicators,
		Years:       cfg.Pipeline.Years,
		Figures:     opts.Figures,
		ConfigHash:  cfg.Pipeline.Hash(),
		CodeVersion: internal.Version,
	}, logger, c.Renderers...)
	if c.Reporter != nil {
		c.Pipeline.WithReport(c.Reporter)
	}
	return c, nil
}

// initRenderers picks the renderers for the configured outputs. Exports are
// only wired when an output directory is set.
func (c *Container) initRenderers(opts Options) error {
	out := c.Config.Output
	if out.Display {
		w := opts.Display
		if w == nil {
			w = os.Stdout
		}
		c.Renderers = append(c.Renderers, console.NewRenderer(w))
	}
	if out.Dir == "" {
		return nil
	}

	figures, err := plot.NewRenderer(out.Dir, out.FigureFormat, c.Logger)
	if err != nil {
		return err
	}
	c.Renderers = append(c.Renderers, figures)
	if out.Workbook {
		workbook, err := excel.NewWorkbook(filepath.Join(out.Dir, WorkbookFile), c.Logger)
		if err != nil {
			return err
		}
		c.Renderers = append(c.Renderers, workbook)
	}
	c.Reporter = report.NewWriter(out.Dir, out.ReportHTML, c.Logger)
	return nil
}

// RendererNames lists the wired renderers in run order
func (c *Container) RendererNames() []string {
	names := make([]string, len(c.Renderers))
	for i, r := range c.Renderers {
		names[i] = r.Name()
	}
	return names
}
