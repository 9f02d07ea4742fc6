// Package reshape turns a raw DataBank extract into the cleaned
// indicator-major table and its year-major transpose.
package reshape

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"wdiviz/domain/core"
	"wdiviz/domain/indicators"
	"wdiviz/internal"
	"wdiviz/ports"
)

// DefaultFooterRows is the length of the notes block DataBank appends to every extract
const DefaultFooterRows = 5

// Options controls the reshaping contract
type Options struct {
	// FooterRows are dropped from the end of the body, whatever they contain
	FooterRows int

	// FirstDroppedYear and LastDroppedYear bound the year columns removed (inclusive)
	FirstDroppedYear int
	LastDroppedYear  int

	// DetectFooter compares the positional drop against the rows that look like notes
	// and logs a warning when they disagree. It never changes the result.
	DetectFooter bool
}

// DefaultOptions returns the options of the reference extract
func DefaultOptions() Options {
	return Options{
		FooterRows:       DefaultFooterRows,
		FirstDroppedYear: 2001,
		LastDroppedYear:  2012,
	}
}

// DroppedColumns lists the exact headers removed from the raw table
func (o Options) DroppedColumns() []string {
	cols := []string{indicators.ColumnCountryCode, indicators.ColumnSeriesCode}
	for y := o.FirstDroppedYear; y <= o.LastDroppedYear && y > 0; y++ {
		cols = append(cols, RawYearHeader(y))
	}
	return cols
}

// RawYearHeader is the DataBank label of a year column
func RawYearHeader(year int) string {
	return fmt.Sprintf("%d [YR%d]", year, year)
}

// Result holds every shape produced by a load
type Result struct {
	Raw        *indicators.RawTable
	Cleaned    *indicators.CleanedTable
	Transposed *indicators.TransposedTable
}

// Loader reads and reshapes an extract
type Loader struct {
	reader  ports.SourceReader
	options Options
	logger  *internal.Logger
}

// NewLoader creates a loader on top of a source reader
func NewLoader(reader ports.SourceReader, options Options, logger *internal.Logger) *Loader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Loader{reader: reader, options: options, logger: logger}
}

// Load reads path and produces the cleaned and transposed tables
func (l *Loader) Load(ctx context.Context, path string) (*Result, error) {
	raw, err := l.reader.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	l.logger.Info("[Loader] %s: %d columns, %d rows (sha256 %s)", path, len(raw.Header), len(raw.Rows), core.Hash(raw.Hash).Short())

	if l.options.DetectFooter {
		l.checkFooter(raw)
	}

	cleaned, err := Clean(raw, l.options)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	transposed, err := Transpose(cleaned)
	if err != nil {
		return nil, err
	}

	l.logger.Info("[Loader] cleaned table: %d rows x %d columns; transposed: %d years x %d columns",
		cleaned.Len(), len(cleaned.Columns), len(transposed.Rows), len(transposed.Labels))
	if l.logger.GetLevel() >= internal.LogLevelDebug {
		l.logger.Debug("[Loader] cleaned head:\n%s", formatRows(cleaned.Head(5)))
		l.logger.Debug("[Loader] transposed head:\n%s", formatRows(transposed.Head(5)))
	}

	return &Result{Raw: raw, Cleaned: cleaned, Transposed: transposed}, nil
}

// checkFooter warns when the trailing notes block differs from the positional
// footer length
func (l *Loader) checkFooter(raw *indicators.RawTable) {
	detected := DetectFooterRows(raw)
	if detected >= 0 && detected != l.options.FooterRows {
		l.logger.Warn("[Loader] %s: %d trailing rows look like notes but %d are dropped by position",
			raw.Source, detected, l.options.FooterRows)
	}
}

// DetectFooterRows counts trailing rows with an empty Series, or -1 when the
// table has no Series column
func DetectFooterRows(raw *indicators.RawTable) int {
	seriesIdx := indexOf(raw.Header, indicators.ColumnSeries)
	if seriesIdx < 0 {
		return -1
	}
	detected := 0
	for i := len(raw.Rows) - 1; i >= 0; i-- {
		if strings.TrimSpace(raw.Rows[i][seriesIdx]) != "" {
			break
		}
		detected++
	}
	return detected
}

// DropFooter removes the last n rows positionally
func DropFooter(rows [][]string, n int) ([][]string, error) {
	if len(rows) < n {
		return nil, core.NewMalformedInputError("extract has %d rows, fewer than the %d footer rows", len(rows), n)
	}
	return rows[:len(rows)-n], nil
}

// DropColumns removes the named columns by exact header match. Every name must exist.
func DropColumns(header []string, rows [][]string, drop []string) ([]string, [][]string, error) {
	dropped := make(map[int]bool, len(drop))
	for _, name := range drop {
		idx := indexOf(header, name)
		if idx < 0 {
			return nil, nil, core.NewMissingColumnError(name)
		}
		dropped[idx] = true
	}

	keep := make([]int, 0, len(header)-len(dropped))
	for i := range header {
		if !dropped[i] {
			keep = append(keep, i)
		}
	}

	outHeader := make([]string, len(keep))
	for j, i := range keep {
		outHeader[j] = header[i]
	}
	outRows := make([][]string, len(rows))
	for r, row := range rows {
		out := make([]string, len(keep))
		for j, i := range keep {
			out[j] = row[i]
		}
		outRows[r] = out
	}
	return outHeader, outRows, nil
}

// NormalizeHeader keeps the part of a header before its first space
func NormalizeHeader(h string) string {
	before, _, _ := strings.Cut(h, " ")
	return before
}

// Clean applies the footer drop, column drop, header rename and value coercion
func Clean(raw *indicators.RawTable, opts Options) (*indicators.CleanedTable, error) {
	for _, required := range []string{indicators.ColumnCountry, indicators.ColumnSeries} {
		if indexOf(raw.Header, required) < 0 {
			return nil, core.NewMissingColumnError(required)
		}
	}

	body, err := DropFooter(raw.Rows, opts.FooterRows)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, core.NewMalformedInputError("no data rows remain after dropping %d footer rows", opts.FooterRows)
	}

	header, body, err := DropColumns(raw.Header, body, opts.DroppedColumns())
	if err != nil {
		return nil, err
	}

	renamed := make([]string, len(header))
	for i, h := range header {
		renamed[i] = NormalizeHeader(h)
	}

	countryIdx, seriesIdx := -1, -1
	var yearIdx []int
	var years []string
	for i, h := range renamed {
		switch {
		case h == indicators.ColumnCountry && countryIdx < 0:
			countryIdx = i
		case h == indicators.ColumnSeries && seriesIdx < 0:
			seriesIdx = i
		case indicators.IsYearKey(h):
			yearIdx = append(yearIdx, i)
			years = append(years, h)
		default:
			return nil, core.NewMalformedInputError("column %q normalises to %q, which is neither Country, Series nor a year", header[i], h)
		}
	}
	if countryIdx < 0 || seriesIdx < 0 {
		return nil, core.NewMalformedInputError("header lost Country or Series during normalisation")
	}

	records := make([]indicators.Record, 0, len(body))
	for r, row := range body {
		rec := indicators.Record{
			Country: row[countryIdx],
			Series:  row[seriesIdx],
			Years:   make(map[string]indicators.Value, len(years)),
		}
		for k, idx := range yearIdx {
			v, err := indicators.ParseValue(row[idx])
			if err != nil {
				// +2: one for the header line, one for 1-based numbering
				return nil, core.NewTypeCoercionError(years[k], r+2, row[idx])
			}
			rec.Years[years[k]] = v
		}
		records = append(records, rec)
	}

	table, err := indicators.NewCleanedTable(years, records)
	if err != nil {
		return nil, core.NewMalformedInputError("%v", err)
	}
	return table, nil
}

// Transpose pivots the cleaned table year-major. The header comes from each
// row's Country; only numeric row labels survive and become the index.
func Transpose(table *indicators.CleanedTable) (*indicators.TransposedTable, error) {
	out := &indicators.TransposedTable{
		Labels: make([]string, len(table.Records)),
		Series: make([]string, len(table.Records)),
	}
	for i, rec := range table.Records {
		out.Labels[i] = rec.Country
		out.Series[i] = rec.Series
	}

	// Country became the header and Series is not numeric, so only year columns remain
	for _, label := range table.Columns {
		if !indicators.IsNumericLabel(label) {
			continue
		}
		year, err := strconv.Atoi(label)
		if err != nil {
			return nil, core.NewMalformedInputError("row label %q: %v", label, err)
		}
		row := indicators.YearRow{
			Index:  year,
			Years:  year,
			Values: make([]indicators.Value, len(table.Records)),
		}
		for i, rec := range table.Records {
			row.Values[i] = rec.Value(label)
		}
		out.Rows = append(out.Rows, row)
	}

	if len(out.Rows) == 0 {
		return nil, core.NewMalformedInputError("no year rows survive the transpose")
	}
	sort.SliceStable(out.Rows, func(i, j int) bool { return out.Rows[i].Index < out.Rows[j].Index })
	return out, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func formatRows(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}
