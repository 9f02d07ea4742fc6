// Package excel exports figures and intermediate tables to an xlsx workbook:
// one sheet per figure holding its data and a native chart.
package excel

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"wdiviz/domain/chart"
	"wdiviz/domain/core"
	"wdiviz/domain/indicators"
	"wdiviz/internal"
	apperrors "wdiviz/internal/errors"
	"wdiviz/ports"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported tables
const (
	SheetCleaned     = "Cleaned"
	SheetTransposed  = "Transposed"
	SheetSummary     = "Summary"
	SheetCorrelation = "Correlation"
)

// Heatmap colour scale, matching the coolwarm endpoints
const (
	scaleLow  = "#3B4CC0"
	scaleMid  = "#DDDDDD"
	scaleHigh = "#B40426"
)

// maxSheetName is Excel's limit on sheet name length
const maxSheetName = 31

// pixelsPerInch converts figure sizes to chart dimensions
const pixelsPerInch = 80

// Workbook collects sheets in memory and writes them on Finish
type Workbook struct {
	path   string
	file   *excelize.File
	logger *internal.Logger
	sheets []string
	header int
	closed bool
}

// NewWorkbook creates an empty workbook that will be saved to path
func NewWorkbook(path string, logger *internal.Logger) (*Workbook, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		_ = f.Close()
		return nil, apperrors.ExportError(path, err)
	}
	return &Workbook{path: path, file: f, logger: logger, header: header}, nil
}

// Name identifies the renderer in run reports
func (w *Workbook) Name() string {
	return "excel"
}

// Path is where Finish writes the workbook
func (w *Workbook) Path() string {
	return w.path
}

// OutputFor returns the workbook sheet holding a figure
func (w *Workbook) OutputFor(id core.FigureID) string {
	name := id.String()
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return w.path + "#" + name
}

// Sheets lists the sheets written so far, in order
func (w *Workbook) Sheets() []string {
	return append([]string(nil), w.sheets...)
}

// Render writes the figure data to its own sheet and anchors a chart next to it
func (w *Workbook) Render(ctx context.Context, fig *chart.Figure) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.closed {
		return apperrors.RenderError(w.Name(), fmt.Errorf("workbook %s already finished", w.path))
	}
	if err := fig.Validate(); err != nil {
		return apperrors.RenderError(w.Name(), err)
	}

	sheet, err := w.addSheet(fig.ID.String())
	if err != nil {
		return apperrors.RenderError(w.Name(), err)
	}

	switch fig.Kind {
	case chart.KindHeatmap:
		err = w.writeHeatmap(sheet, fig)
	case chart.KindBar:
		err = w.writeBars(sheet, fig)
	case chart.KindLine:
		err = w.writeLines(sheet, fig)
	case chart.KindPie:
		err = w.writePie(sheet, fig)
	case chart.KindHistogram:
		err = w.writeHistogram(sheet, fig)
	default:
		err = fmt.Errorf("unsupported kind %q", fig.Kind)
	}
	if err != nil {
		return apperrors.RenderError(w.Name(), fmt.Errorf("figure %s: %w", fig.ID, err))
	}

	w.logger.Debug("[ExcelRenderer] %s figure %s written to sheet %s", fig.Kind, fig.ID, sheet)
	return nil
}

// WriteTables adds the cleaned, transposed, summary and correlation sheets
func (w *Workbook) WriteTables(ctx context.Context, tables ports.Tables) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.closed {
		return apperrors.ExportError(w.path, fmt.Errorf("workbook already finished"))
	}
	if tables.Cleaned != nil {
		if err := w.writeCleaned(tables.Cleaned); err != nil {
			return apperrors.ExportError(w.path, err)
		}
	}
	if tables.Transposed != nil {
		if err := w.writeTransposed(tables.Transposed); err != nil {
			return apperrors.ExportError(w.path, err)
		}
	}
	if len(tables.Summaries) > 0 {
		if err := w.writeSummaries(tables.Summaries); err != nil {
			return apperrors.ExportError(w.path, err)
		}
	}
	if tables.Matrix != nil {
		if err := w.writeCorrelation(tables.Matrix); err != nil {
			return apperrors.ExportError(w.path, err)
		}
	}
	return nil
}

// Finish saves the workbook and releases it
func (w *Workbook) Finish(ctx context.Context) error {
	if w.closed {
		return apperrors.ExportError(w.path, fmt.Errorf("workbook already finished"))
	}
	w.closed = true
	defer w.file.Close()

	if err := ctx.Err(); err != nil {
		return err
	}

	if len(w.sheets) > 0 {
		if idx, err := w.file.GetSheetIndex(w.sheets[0]); err == nil && idx >= 0 {
			w.file.SetActiveSheet(idx)
		}
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return apperrors.ExportError(w.path, err)
	}
	w.logger.Info("[ExcelRenderer] workbook with %d sheets saved to %s", len(w.sheets), w.path)
	return nil
}

// addSheet reuses the default sheet for the first name and creates the rest
func (w *Workbook) addSheet(name string) (string, error) {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	for _, s := range w.sheets {
		if s == name {
			return "", fmt.Errorf("sheet %q already written", name)
		}
	}

	if len(w.sheets) == 0 {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return "", err
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return "", err
	}
	w.sheets = append(w.sheets, name)
	return name, nil
}

func (w *Workbook) writeRow(sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return w.file.SetSheetRow(sheet, cell, &values)
}

func (w *Workbook) writeHeader(sheet string, values ...string) error {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := w.writeRow(sheet, 1, row); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(values), 1)
	if err != nil {
		return err
	}
	if err := w.file.SetCellStyle(sheet, "A1", last, w.header); err != nil {
		return err
	}
	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return err
	}
	return w.file.SetColWidth(sheet, "A", lastCol, 16)
}

// cellValue leaves missing values blank
func cellValue(f float64) interface{} {
	if math.IsNaN(f) {
		return nil
	}
	return f
}

func nullable(v indicators.Value) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Float
}

// ref builds an absolute range reference on sheet
func ref(sheet string, col, fromRow, toRow int) (string, error) {
	from, err := excelize.CoordinatesToCellName(col, fromRow, true)
	if err != nil {
		return "", err
	}
	to, err := excelize.CoordinatesToCellName(col, toRow, true)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("'%s'!%s:%s", sheet, from, to), nil
}

func cellRef(sheet string, col, row int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row, true)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("'%s'!%s", sheet, cell), nil
}

func baseChart(fig *chart.Figure, kind excelize.ChartType) *excelize.Chart {
	c := &excelize.Chart{
		Type:  kind,
		Title: []excelize.RichTextRun{{Text: fig.Style.Title}},
		Dimension: excelize.ChartDimension{
			Width:  uint(fig.Style.Size.Width * pixelsPerInch),
			Height: uint(fig.Style.Size.Height * pixelsPerInch),
		},
		Legend: excelize.ChartLegend{Position: legendPosition(fig.Style.Legend.Location)},
	}
	if fig.Style.XLabel != "" {
		c.XAxis.Title = []excelize.RichTextRun{{Text: fig.Style.XLabel}}
	}
	if fig.Style.YLabel != "" {
		c.YAxis.Title = []excelize.RichTextRun{{Text: fig.Style.YLabel}}
	}
	return c
}

func legendPosition(location string) string {
	switch location {
	case chart.LegendUpperLeft:
		return "top"
	case chart.LegendLowerLeft:
		return "bottom"
	case chart.LegendNone:
		return "none"
	default:
		return "right"
	}
}

// anchor places the chart two columns right of the data block
func (w *Workbook) anchor(sheet string, dataCols int, c *excelize.Chart) error {
	cell, err := excelize.CoordinatesToCellName(dataCols+2, 2)
	if err != nil {
		return err
	}
	return w.file.AddChart(sheet, cell, c)
}

func (w *Workbook) writeBars(sheet string, fig *chart.Figure) error {
	header := []string{fig.Encoding.X}
	for _, s := range fig.Series {
		header = append(header, s.Name)
	}
	if err := w.writeHeader(sheet, header...); err != nil {
		return err
	}
	for i, category := range fig.Categories {
		row := []interface{}{category}
		for _, s := range fig.Series {
			row = append(row, cellValue(s.Points[i].Y))
		}
		if err := w.writeRow(sheet, i+2, row); err != nil {
			return err
		}
	}

	c := baseChart(fig, excelize.Col)
	last := len(fig.Categories) + 1
	for j := range fig.Series {
		series, err := chartSeries(sheet, j+2, last)
		if err != nil {
			return err
		}
		c.Series = append(c.Series, series)
	}
	return w.anchor(sheet, len(header), c)
}

// chartSeries reads categories from column A and values from col
func chartSeries(sheet string, col, lastRow int) (excelize.ChartSeries, error) {
	name, err := cellRef(sheet, col, 1)
	if err != nil {
		return excelize.ChartSeries{}, err
	}
	categories, err := ref(sheet, 1, 2, lastRow)
	if err != nil {
		return excelize.ChartSeries{}, err
	}
	values, err := ref(sheet, col, 2, lastRow)
	if err != nil {
		return excelize.ChartSeries{}, err
	}
	return excelize.ChartSeries{Name: name, Categories: categories, Values: values}, nil
}

func (w *Workbook) writeLines(sheet string, fig *chart.Figure) error {
	header := []string{fig.Encoding.X}
	seen := map[float64]bool{}
	var xs []float64
	for _, s := range fig.Series {
		header = append(header, s.Name)
		for _, p := range s.Points {
			if !seen[p.X] {
				seen[p.X] = true
				xs = append(xs, p.X)
			}
		}
	}
	sort.Float64s(xs)
	if err := w.writeHeader(sheet, header...); err != nil {
		return err
	}

	for i, x := range xs {
		row := []interface{}{strconv.FormatFloat(x, 'f', -1, 64)}
		for _, s := range fig.Series {
			var cell interface{}
			for _, p := range s.Points {
				if p.X == x {
					cell = cellValue(p.Y)
					break
				}
			}
			row = append(row, cell)
		}
		if err := w.writeRow(sheet, i+2, row); err != nil {
			return err
		}
	}

	c := baseChart(fig, excelize.Line)
	c.ShowBlanksAs = "gap"
	last := len(xs) + 1
	for j := range fig.Series {
		series, err := chartSeries(sheet, j+2, last)
		if err != nil {
			return err
		}
		series.Line = excelize.ChartLine{Width: fig.Style.LineWidth}
		if fig.Style.Markers {
			series.Marker = excelize.ChartMarker{Symbol: "circle", Size: int(fig.Style.MarkerSize)}
		}
		c.Series = append(c.Series, series)
	}
	return w.anchor(sheet, len(header), c)
}

func (w *Workbook) writePie(sheet string, fig *chart.Figure) error {
	if err := w.writeHeader(sheet, fig.Encoding.X, fig.Encoding.Y, "Percent"); err != nil {
		return err
	}
	percents := fig.Percentages()
	for i, s := range fig.Slices {
		if err := w.writeRow(sheet, i+2, []interface{}{s.Label, s.Value, percents[i]}); err != nil {
			return err
		}
	}

	c := baseChart(fig, excelize.Pie)
	c.PlotArea = excelize.ChartPlotArea{ShowPercent: true, ShowCatName: true}
	series, err := chartSeries(sheet, 2, len(fig.Slices)+1)
	if err != nil {
		return err
	}
	c.Series = []excelize.ChartSeries{series}
	return w.anchor(sheet, 3, c)
}

func (w *Workbook) writeHistogram(sheet string, fig *chart.Figure) error {
	if err := w.writeHeader(sheet, "Bin", "Min", "Max", fig.Style.YLabel); err != nil {
		return err
	}
	for i, b := range fig.Bins {
		label := fmt.Sprintf("%.4g - %.4g", b.Min, b.Max)
		if err := w.writeRow(sheet, i+2, []interface{}{label, b.Min, b.Max, b.Count}); err != nil {
			return err
		}
	}

	c := baseChart(fig, excelize.Col)
	gap := uint(0)
	c.GapWidth = &gap
	c.Legend.Position = "none"
	series, err := chartSeries(sheet, 4, len(fig.Bins)+1)
	if err != nil {
		return err
	}
	if len(fig.Style.Colors) > 0 {
		series.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorHex(fig.Style.Colors[0])}}
	}
	c.Series = []excelize.ChartSeries{series}
	return w.anchor(sheet, 4, c)
}

// colorHex maps the named colours used by the builders
func colorHex(name string) string {
	switch name {
	case "skyblue":
		return "#87CEEB"
	default:
		return name
	}
}

func (w *Workbook) writeHeatmap(sheet string, fig *chart.Figure) error {
	return w.writeGrid(sheet, fig.Grid.XLabels, fig.Grid.YLabels, fig.Grid.Values)
}

// writeGrid writes a labelled matrix and colours it with a 3-colour scale over -1..1
func (w *Workbook) writeGrid(sheet string, xLabels, yLabels []string, values [][]float64) error {
	if err := w.writeHeader(sheet, append([]string{""}, xLabels...)...); err != nil {
		return err
	}
	for i, label := range yLabels {
		row := []interface{}{label}
		for _, v := range values[i] {
			row = append(row, cellValue(v))
		}
		if err := w.writeRow(sheet, i+2, row); err != nil {
			return err
		}
	}
	if len(xLabels) == 0 || len(yLabels) == 0 {
		return nil
	}

	last, err := excelize.CoordinatesToCellName(len(xLabels)+1, len(yLabels)+1)
	if err != nil {
		return err
	}
	area := "B2:" + last

	format := "0.00"
	decimals, err := w.file.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return err
	}
	if err := w.file.SetCellStyle(sheet, "B2", last, decimals); err != nil {
		return err
	}
	return w.file.SetConditionalFormat(sheet, area, []excelize.ConditionalFormatOptions{{
		Type:     "3_color_scale",
		Criteria: "=",
		MinType:  "num",
		MidType:  "num",
		MaxType:  "num",
		MinValue: "-1",
		MidValue: "0",
		MaxValue: "1",
		MinColor: scaleLow,
		MidColor: scaleMid,
		MaxColor: scaleHigh,
	}})
}

func (w *Workbook) writeCleaned(table *indicators.CleanedTable) error {
	sheet, err := w.addSheet(SheetCleaned)
	if err != nil {
		return err
	}
	if err := w.writeHeader(sheet, table.Columns...); err != nil {
		return err
	}
	for i, rec := range table.Records {
		row := []interface{}{rec.Country, rec.Series}
		for _, year := range table.YearColumns {
			row = append(row, nullable(rec.Value(year)))
		}
		if err := w.writeRow(sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) writeTransposed(table *indicators.TransposedTable) error {
	sheet, err := w.addSheet(SheetTransposed)
	if err != nil {
		return err
	}
	// the indicator name goes above each country label so columns stay addressable
	if err := w.writeHeader(sheet, append(append([]string{""}, table.Labels...), "Years")...); err != nil {
		return err
	}
	series := []interface{}{"Series"}
	for _, s := range table.Series {
		series = append(series, s)
	}
	if err := w.writeRow(sheet, 2, series); err != nil {
		return err
	}
	for i, yr := range table.Rows {
		row := []interface{}{yr.Index}
		for _, v := range yr.Values {
			row = append(row, nullable(v))
		}
		row = append(row, yr.Years)
		if err := w.writeRow(sheet, i+3, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) writeSummaries(summaries []indicators.SeriesSummary) error {
	sheet, err := w.addSheet(SheetSummary)
	if err != nil {
		return err
	}
	if err := w.writeHeader(sheet, "Series", "Year", "count", "mean", "std", "min", "25%", "50%", "75%", "max"); err != nil {
		return err
	}
	row := 2
	for _, s := range summaries {
		for _, year := range s.Years {
			d := s.Stats[year]
			values := []interface{}{
				s.Series, year, d.Count,
				cellValue(d.Mean), cellValue(d.Std), cellValue(d.Min),
				cellValue(d.Q25), cellValue(d.Median), cellValue(d.Q75), cellValue(d.Max),
			}
			if err := w.writeRow(sheet, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func (w *Workbook) writeCorrelation(m *indicators.CorrelationMatrix) error {
	sheet, err := w.addSheet(SheetCorrelation)
	if err != nil {
		return err
	}
	if err := w.writeGrid(sheet, m.Labels, m.Labels, m.R); err != nil {
		return err
	}

	// pair counts and p-values below the coefficients
	offset := len(m.Labels) + 3
	for block, title := range []string{"n", "p-value"} {
		start := offset + block*(len(m.Labels)+2)
		heading := []interface{}{title}
		for _, l := range m.Labels {
			heading = append(heading, l)
		}
		if err := w.writeRow(sheet, start, heading); err != nil {
			return err
		}
		for i, label := range m.Labels {
			row := []interface{}{label}
			for j := range m.Labels {
				if block == 0 {
					row = append(row, m.N[i][j])
				} else {
					row = append(row, cellValue(m.P[i][j]))
				}
			}
			if err := w.writeRow(sheet, start+1+i, row); err != nil {
				return err
			}
		}
	}
	return nil
}
