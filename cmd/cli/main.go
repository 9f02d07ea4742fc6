package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"wdiviz/adapters/render/console"
	"wdiviz/domain/indicators"
	"wdiviz/internal"
	"wdiviz/internal/aggregate"
	"wdiviz/internal/charts"
	"wdiviz/internal/config"
	"wdiviz/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// globalFlags override the environment for every subcommand
type globalFlags struct {
	pipelineFile string
	logLevel     string
}

func main() {
	_ = godotenv.Load()

	var flags globalFlags
	rootCmd := &cobra.Command{
		Use:           "wdiviz",
		Short:         "Reshape, summarise and chart World Development Indicators extracts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.pipelineFile, "pipeline", "", "YAML pipeline file (overrides WDI_PIPELINE_FILE)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "ERROR|WARN|INFO|DEBUG|TRACE (overrides LOG_LEVEL)")

	rootCmd.AddCommand(
		newRunCmd(&flags),
		newReshapeCmd(&flags),
		newDescribeCmd(&flags),
		newChartCmd(&flags),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the environment, applies flags and the source argument,
// then validates
func loadConfig(flags *globalFlags, args []string) (*config.Config, error) {
	cfg, err := config.FromEnvWithPipeline(flags.pipelineFile)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = strings.ToUpper(flags.logLevel)
	}
	if len(args) > 0 {
		cfg.Source.Path = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type outputFlags struct {
	dir       string
	format    string
	noDisplay bool
	noHTML    bool
	noExcel   bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.dir, "out", "o", "", "Output directory for figures, workbook and report (overrides WDI_OUTPUT_DIR)")
	cmd.Flags().StringVar(&o.format, "format", "", "Figure format: png|svg (overrides WDI_FIGURE_FORMAT)")
	cmd.Flags().BoolVar(&o.noDisplay, "no-display", false, "Do not print figures to the terminal")
	cmd.Flags().BoolVar(&o.noHTML, "no-html", false, "Write the report as Markdown only")
	cmd.Flags().BoolVar(&o.noExcel, "no-excel", false, "Do not export the xlsx workbook")
}

func (o *outputFlags) apply(cfg *config.Config) error {
	if o.dir != "" {
		cfg.Output.Dir = o.dir
	}
	if o.format != "" {
		cfg.Output.FigureFormat = strings.ToLower(o.format)
	}
	if o.noDisplay {
		cfg.Output.Display = false
	}
	if o.noHTML {
		cfg.Output.ReportHTML = false
	}
	if o.noExcel {
		cfg.Output.Workbook = false
	}
	return cfg.Validate()
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "run [extract]",
		Short: "Run the full pipeline: reshape, summarise, build and render every chart",
		Long: `Run the full pipeline over a DataBank extract (CSV or xlsx).

The extract defaults to WDI_SOURCE. Figures are printed to the terminal and,
when an output directory is given, exported together with an xlsx workbook
and a Markdown/HTML report.

Example: wdiviz run Data_Extract_From_World_Development_Indicators.csv --out out --format svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, args)
			if err != nil {
				return err
			}
			if err := out.apply(cfg); err != nil {
				return err
			}
			return runPipeline(cmd.Context(), cfg, nil)
		},
	}
	out.register(cmd)
	return cmd
}

func newChartCmd(flags *globalFlags) *cobra.Command {
	var out outputFlags

	names := charts.NewBuilder(charts.DefaultConfig()).Names()
	cmd := &cobra.Command{
		Use:       "chart <name> [extract]",
		Short:     "Build and render a single chart",
		Long:      "Build and render a single chart. Known charts: " + strings.Join(names, ", "),
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, args[1:])
			if err != nil {
				return err
			}
			if err := out.apply(cfg); err != nil {
				return err
			}
			if !slices.Contains(names, args[0]) {
				return fmt.Errorf("unknown chart %q (known: %s)", args[0], strings.Join(names, ", "))
			}
			return runPipeline(cmd.Context(), cfg, []string{args[0]})
		},
	}
	out.register(cmd)
	return cmd
}

func runPipeline(ctx context.Context, cfg *config.Config, figures []string) error {
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	defer logger.Sync()

	c, err := container.New(cfg, logger, container.Options{Figures: figures})
	if err != nil {
		return err
	}
	result, err := c.Pipeline.Run(ctx, cfg.Source.Path)
	if err != nil {
		return err
	}

	failures := result.Report.Failures()
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "%s failed: %s\n", f.StageName, f.Error)
	}
	if cfg.Output.Dir != "" {
		fmt.Printf("Outputs written to %s\n", cfg.Output.Dir)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d stages failed", len(failures), result.Report.Pipeline.Overall.TotalStages)
	}
	return nil
}

func newReshapeCmd(flags *globalFlags) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "reshape [extract]",
		Short: "Clean and transpose an extract and print the head of both tables",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, args)
			if err != nil {
				return err
			}
			c, err := newQuietContainer(cfg)
			if err != nil {
				return err
			}
			tables, err := c.Loader.Load(cmd.Context(), cfg.Source.Path)
			if err != nil {
				return err
			}

			display := console.NewRenderer(os.Stdout)
			if err := display.Table(
				fmt.Sprintf("Cleaned data (%d rows)", tables.Cleaned.Len()),
				tables.Cleaned.Head(rows),
			); err != nil {
				return err
			}
			return display.Table(
				fmt.Sprintf("Transposed data (%d rows)", len(tables.Transposed.Rows)),
				tables.Transposed.Head(rows),
			)
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", console.HeadRows, "Rows to print from each table")
	return cmd
}

func newDescribeCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe [extract]",
		Short: "Print descriptive statistics and the correlation matrix of the selected indicators",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, args)
			if err != nil {
				return err
			}
			c, err := newQuietContainer(cfg)
			if err != nil {
				return err
			}
			tables, err := c.Loader.Load(cmd.Context(), cfg.Source.Path)
			if err != nil {
				return err
			}
			agg, err := aggregate.Aggregate(tables.Cleaned, cfg.Pipeline.Indicators, cfg.Pipeline.Years)
			if err != nil {
				return err
			}
			for _, missing := range agg.MissingErrors() {
				fmt.Fprintln(os.Stderr, missing)
			}

			display := console.NewRenderer(os.Stdout)
			if err := display.Summaries(agg.Summaries); err != nil {
				return err
			}
			return display.Table("Correlation matrix ("+strings.Join(agg.Years, ", ")+")", matrixRows(agg.Matrix))
		},
	}
	return cmd
}

// newQuietContainer wires the loader without any renderer
func newQuietContainer(cfg *config.Config) (*container.Container, error) {
	cfg.Output.Display = false
	cfg.Output.Dir = ""
	return container.New(cfg, internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)), container.Options{})
}

func matrixRows(m *indicators.CorrelationMatrix) [][]string {
	rows := [][]string{append([]string{""}, m.Labels...)}
	for i, label := range m.Labels {
		row := []string{label}
		for j := range m.Labels {
			row = append(row, fmt.Sprintf("%.2f", m.R[i][j]))
		}
		rows = append(rows, row)
	}
	return rows
}
