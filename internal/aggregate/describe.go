// Package aggregate computes the grouped descriptive statistics and the
// cross-indicator correlation matrix of a cleaned table.
package aggregate

import (
	"math"
	"sort"

	"wdiviz/domain/indicators"

	"github.com/montanaflynn/stats"
)

// DescribeValues summarises the non-missing observations of one column.
// Statistics that need more observations than available are NaN.
func DescribeValues(values []indicators.Value) indicators.Describe {
	data := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Valid {
			data = append(data, v.Float)
		}
	}

	d := indicators.Describe{
		Count:  len(data),
		Mean:   math.NaN(),
		Std:    math.NaN(),
		Min:    math.NaN(),
		Q25:    math.NaN(),
		Median: math.NaN(),
		Q75:    math.NaN(),
		Max:    math.NaN(),
	}
	if len(data) == 0 {
		return d
	}

	d.Mean, _ = stats.Mean(data)
	d.Min, _ = stats.Min(data)
	d.Max, _ = stats.Max(data)
	d.Median, _ = stats.Median(data)
	if len(data) > 1 {
		d.Std, _ = stats.StandardDeviationSample(data)
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	d.Q25 = quantile(sorted, 0.25)
	d.Q75 = quantile(sorted, 0.75)
	return d
}

// quantile interpolates linearly between closest ranks, h = (n-1)p
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// DescribeBySeries groups rows by Series and describes every year column.
// Groups come out in sorted Series order.
func DescribeBySeries(table *indicators.CleanedTable) []indicators.SeriesSummary {
	groups := make(map[string][]indicators.Record)
	for _, rec := range table.Records {
		groups[rec.Series] = append(groups[rec.Series], rec)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	summaries := make([]indicators.SeriesSummary, 0, len(names))
	for _, name := range names {
		summary := indicators.SeriesSummary{
			Series: name,
			Years:  append([]string(nil), table.YearColumns...),
			Stats:  make(map[string]indicators.Describe, len(table.YearColumns)),
		}
		for _, year := range table.YearColumns {
			column := make([]indicators.Value, 0, len(groups[name]))
			for _, rec := range groups[name] {
				column = append(column, rec.Value(year))
			}
			summary.Stats[year] = DescribeValues(column)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
