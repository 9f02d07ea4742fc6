package charts

import (
	"sort"
	"strconv"

	"wdiviz/domain/core"
	"wdiviz/domain/indicators"
)

// Melt turns the rows of one series into long form over the given year
// columns. Records come out year by year, countries in table order. Missing
// values are skipped.
func Melt(table *indicators.CleanedTable, series string, years []string) ([]indicators.LongRecord, error) {
	subset := table.FilterSeries(series)

	yearInts := make([]int, len(years))
	for i, year := range years {
		if !table.HasYear(year) {
			return nil, core.NewMissingColumnError(year)
		}
		y, err := strconv.Atoi(year)
		if err != nil {
			return nil, core.NewTypeCoercionError("Year", i, year)
		}
		yearInts[i] = y
	}

	var long []indicators.LongRecord
	for i, year := range years {
		for _, rec := range subset.Records {
			v := rec.Value(year)
			if !v.Valid {
				continue
			}
			long = append(long, indicators.LongRecord{
				Country: rec.Country,
				Year:    yearInts[i],
				Value:   v.Float,
				Series:  rec.Series,
			})
		}
	}
	return long, nil
}

// Unmelt pivots long records back to one row per (Country, Series), in order
// of first appearance, with year columns sorted
func Unmelt(long []indicators.LongRecord) (*indicators.CleanedTable, error) {
	type rowKey struct{ country, series string }
	index := make(map[rowKey]int)
	yearSet := make(map[int]bool)
	var records []indicators.Record

	for _, lr := range long {
		key := rowKey{lr.Country, lr.Series}
		i, ok := index[key]
		if !ok {
			i = len(records)
			index[key] = i
			records = append(records, indicators.Record{
				Country: lr.Country,
				Series:  lr.Series,
				Years:   make(map[string]indicators.Value),
			})
		}
		records[i].Years[strconv.Itoa(lr.Year)] = indicators.Float(lr.Value)
		yearSet[lr.Year] = true
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)
	yearColumns := make([]string, len(years))
	for i, y := range years {
		yearColumns[i] = strconv.Itoa(y)
	}

	return indicators.NewCleanedTable(yearColumns, records)
}

// WindowYears lists the year columns first..last inclusive
func WindowYears(first, last int) []string {
	var years []string
	for y := first; y <= last; y++ {
		years = append(years, strconv.Itoa(y))
	}
	return years
}
