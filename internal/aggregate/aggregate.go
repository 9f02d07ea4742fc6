package aggregate

import (
	"wdiviz/domain/core"
	"wdiviz/domain/indicators"
)

// DefaultIndicators are the indicators summarised and correlated by a default run
var DefaultIndicators = []string{
	"Population density (people per sq. km of land area)",
	"Rural population",
	"Urban population (% of total population)",
	"Urban population growth (annual %)",
	"Population in the largest city (% of urban population)",
}

// DefaultYears selects the value columns of the correlation pivot
var DefaultYears = []string{"2013"}

// Result bundles the outputs of one aggregation
type Result struct {
	Indicators []string
	Years      []string
	Summaries  []indicators.SeriesSummary
	Pivot      *Pivot
	Matrix     *indicators.CorrelationMatrix

	// Missing lists requested indicators with no rows in the table
	Missing []string
}

// Aggregate filters the table to the given indicators (exact match), describes
// each group and correlates the indicators over the selected years.
// Indicators without rows are not an error: they are reported in Missing and
// show up as all-missing matrix entries.
func Aggregate(table *indicators.CleanedTable, names, years []string) (*Result, error) {
	if len(years) == 0 {
		return nil, core.NewMalformedInputError("no year selected for the correlation pivot")
	}
	for _, year := range years {
		if !table.HasYear(year) {
			return nil, core.NewMissingColumnError(year)
		}
	}

	selected := table.FilterSeries(names...)
	present := make(map[string]bool)
	for _, rec := range selected.Records {
		present[rec.Series] = true
	}

	result := &Result{
		Indicators: append([]string(nil), names...),
		Years:      append([]string(nil), years...),
		Summaries:  DescribeBySeries(selected),
	}
	for _, name := range names {
		if !present[name] {
			result.Missing = append(result.Missing, name)
		}
	}

	result.Pivot = PivotBySeries(selected, names, years)
	result.Matrix = Correlate(result.Pivot)
	return result, nil
}

// MissingErrors turns each missing indicator into an InsufficientData error for reporting
func (r *Result) MissingErrors() []error {
	errs := make([]error, 0, len(r.Missing))
	for _, name := range r.Missing {
		errs = append(errs, core.NewMissingIndicatorError(name))
	}
	return errs
}
