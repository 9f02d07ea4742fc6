// Package indicators holds the typed tables produced from a World Development
// Indicators extract: the raw rows, the cleaned indicator-major table and its
// year-major transpose.
package indicators

import (
	"fmt"
	"maps"
	"sort"
	"strconv"
)

// Column names of a World Bank DataBank extract
const (
	ColumnCountry     = "Country"
	ColumnCountryCode = "Country Code"
	ColumnSeries      = "Series"
	ColumnSeriesCode  = "Series Code"
)

// Record is one cleaned row: a single indicator for a single country with its
// yearly values keyed by bare year ("2013").
type Record struct {
	Country string
	Series  string
	Years   map[string]Value
}

// Value returns the value for a bare year key, missing when absent
func (r Record) Value(year string) Value {
	if v, ok := r.Years[year]; ok {
		return v
	}
	return Missing()
}

// Clone returns a copy whose year map can be modified independently
func (r Record) Clone() Record {
	return Record{
		Country: r.Country,
		Series:  r.Series,
		Years:   maps.Clone(r.Years),
	}
}

// CleanedTable is the indicator-major table. Columns is always Country, Series
// and then the bare year columns in source order.
type CleanedTable struct {
	Columns     []string
	YearColumns []string
	Records     []Record
}

// NewCleanedTable builds a table and checks the column invariant
func NewCleanedTable(yearColumns []string, records []Record) (*CleanedTable, error) {
	seen := make(map[string]bool, len(yearColumns))
	for _, year := range yearColumns {
		if !IsYearKey(year) {
			return nil, fmt.Errorf("column %q is not a 4-digit year", year)
		}
		if seen[year] {
			return nil, fmt.Errorf("duplicate year column %q", year)
		}
		seen[year] = true
	}

	columns := make([]string, 0, len(yearColumns)+2)
	columns = append(columns, ColumnCountry, ColumnSeries)
	columns = append(columns, yearColumns...)

	return &CleanedTable{
		Columns:     columns,
		YearColumns: append([]string(nil), yearColumns...),
		Records:     records,
	}, nil
}

// Len returns the number of rows
func (t *CleanedTable) Len() int {
	return len(t.Records)
}

// HasYear reports whether the table carries the given bare year column
func (t *CleanedTable) HasYear(year string) bool {
	for _, y := range t.YearColumns {
		if y == year {
			return true
		}
	}
	return false
}

// FilterSeries returns a copy holding only rows whose Series is one of names.
// Matching is exact. The receiver is never modified.
func (t *CleanedTable) FilterSeries(names ...string) *CleanedTable {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	out := &CleanedTable{
		Columns:     append([]string(nil), t.Columns...),
		YearColumns: append([]string(nil), t.YearColumns...),
	}
	for _, rec := range t.Records {
		if wanted[rec.Series] {
			out.Records = append(out.Records, rec.Clone())
		}
	}
	return out
}

// SeriesNames returns the distinct Series values in sorted order
func (t *CleanedTable) SeriesNames() []string {
	set := make(map[string]struct{})
	for _, rec := range t.Records {
		set[rec.Series] = struct{}{}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Head renders the first n rows as strings, header first
func (t *CleanedTable) Head(n int) [][]string {
	if n > len(t.Records) {
		n = len(t.Records)
	}
	out := make([][]string, 0, n+1)
	out = append(out, append([]string(nil), t.Columns...))
	for _, rec := range t.Records[:n] {
		row := []string{rec.Country, rec.Series}
		for _, year := range t.YearColumns {
			row = append(row, rec.Value(year).String())
		}
		out = append(out, row)
	}
	return out
}

// YearRow is one row of the transposed table
type YearRow struct {
	Index  int
	Years  int
	Values []Value
}

// TransposedTable is the year-major view: one row per year, one column per
// source row. Labels come from each source row's Country, so they may repeat;
// Series keeps the matching indicator name for every column.
type TransposedTable struct {
	Labels []string
	Series []string
	Rows   []YearRow
}

// Index returns the integer year index of every row
func (t *TransposedTable) Index() []int {
	index := make([]int, len(t.Rows))
	for i, row := range t.Rows {
		index[i] = row.Index
	}
	return index
}

// Column returns the values of column i across all years
func (t *TransposedTable) Column(i int) []Value {
	col := make([]Value, len(t.Rows))
	for r, row := range t.Rows {
		col[r] = row.Values[i]
	}
	return col
}

// Head renders the first n rows as strings, header first
func (t *TransposedTable) Head(n int) [][]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	header := append([]string{""}, t.Labels...)
	header = append(header, "Years")

	out := make([][]string, 0, n+1)
	out = append(out, header)
	for _, row := range t.Rows[:n] {
		line := []string{strconv.Itoa(row.Index)}
		for _, v := range row.Values {
			line = append(line, v.String())
		}
		line = append(line, strconv.Itoa(row.Years))
		out = append(out, line)
	}
	return out
}

// LongRecord is one melted observation
type LongRecord struct {
	Country string
	Year    int
	Value   float64
	Series  string
}

// IsYearKey reports whether s is a bare 4-digit year
func IsYearKey(s string) bool {
	return len(s) == 4 && IsNumericLabel(s)
}

// IsNumericLabel reports whether s is non-empty and made only of ASCII digits
func IsNumericLabel(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// RawTable is the source file as read: a trimmed header and every following
// row padded to the header width. Hash fingerprints the source bytes.
type RawTable struct {
	Source string
	Header []string
	Rows   [][]string
	Hash   string
}
