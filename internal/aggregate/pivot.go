package aggregate

import (
	"sort"

	"wdiviz/domain/indicators"

	"github.com/montanaflynn/stats"
)

// Pivot is a Country x Series table of one value per cell
type Pivot struct {
	Countries []string
	Columns   []string
	Cells     [][]indicators.Value
}

// Column returns the values of column j for every country
func (p *Pivot) Column(j int) []indicators.Value {
	col := make([]indicators.Value, len(p.Countries))
	for i := range p.Countries {
		col[i] = p.Cells[i][j]
	}
	return col
}

// PivotBySeries spreads the rows over Country x Series using the given year
// columns. Several observations for one cell (duplicate rows or several years)
// are averaged. Columns keep the order in which series first appear; requested
// series without rows are appended as all-missing columns.
func PivotBySeries(table *indicators.CleanedTable, series, years []string) *Pivot {
	type cellKey struct{ country, series string }
	observations := make(map[cellKey][]float64)

	var columns []string
	seenColumn := make(map[string]bool)
	seenCountry := make(map[string]bool)
	var countries []string

	for _, rec := range table.Records {
		if !seenColumn[rec.Series] {
			seenColumn[rec.Series] = true
			columns = append(columns, rec.Series)
		}
		if !seenCountry[rec.Country] {
			seenCountry[rec.Country] = true
			countries = append(countries, rec.Country)
		}
		key := cellKey{rec.Country, rec.Series}
		for _, year := range years {
			if v := rec.Value(year); v.Valid {
				observations[key] = append(observations[key], v.Float)
			}
		}
	}
	for _, name := range series {
		if !seenColumn[name] {
			seenColumn[name] = true
			columns = append(columns, name)
		}
	}
	sort.Strings(countries)

	p := &Pivot{
		Countries: countries,
		Columns:   columns,
		Cells:     make([][]indicators.Value, len(countries)),
	}
	for i, country := range countries {
		p.Cells[i] = make([]indicators.Value, len(columns))
		for j, name := range columns {
			obs := observations[cellKey{country, name}]
			if len(obs) == 0 {
				continue
			}
			mean, _ := stats.Mean(obs)
			p.Cells[i][j] = indicators.Float(mean)
		}
	}
	return p
}
