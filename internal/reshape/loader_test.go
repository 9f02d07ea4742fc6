package reshape

import (
	"context"
	"strconv"
	"testing"

	"wdiviz/adapters/worldbank"
	"wdiviz/domain/core"
	"wdiviz/domain/indicators"
	"wdiviz/internal"
	"wdiviz/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(opts Options) *Loader {
	logger := internal.NewNopLogger()
	return NewLoader(worldbank.NewReader(logger), opts, logger)
}

func rawFrom(t *testing.T, config testkit.ExtractConfig) *indicators.RawTable {
	t.Helper()
	raw, err := worldbank.NewRawTable("synthetic.csv", testkit.NewExtractGenerator(config).Rows())
	require.NoError(t, err)
	return raw
}

func TestLoadReferenceExtract(t *testing.T) {
	config := testkit.DefaultExtractConfig()
	path, err := testkit.NewExtractGenerator(config).WriteCSV(t.TempDir(), "wdi.csv")
	require.NoError(t, err)

	result, err := newTestLoader(DefaultOptions()).Load(context.Background(), path)
	require.NoError(t, err)

	rows := len(config.Countries) * len(config.Indicators)
	assert.Len(t, result.Raw.Rows, rows+DefaultFooterRows)
	assert.Equal(t, rows, result.Cleaned.Len())
	assert.NotEmpty(t, result.Raw.Hash)

	assert.Equal(t,
		[]string{"Country", "Series", "2013", "2014", "2015", "2016", "2017", "2018", "2019"},
		result.Cleaned.Columns)
	for y := 2001; y <= 2012; y++ {
		assert.False(t, result.Cleaned.HasYear(strconv.Itoa(y)), "year %d should be dropped", y)
	}
}

func TestLoadWorkbookExtract(t *testing.T) {
	config := testkit.DefaultExtractConfig()
	config.Countries = []string{"A", "B"}
	path, err := testkit.NewExtractGenerator(config).WriteXLSX(t.TempDir(), "wdi.xlsx")
	require.NoError(t, err)

	result, err := newTestLoader(DefaultOptions()).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2*len(config.Indicators), result.Cleaned.Len())
	assert.Equal(t, 7, len(result.Transposed.Rows))
}

func TestDropFooterIsPositional(t *testing.T) {
	rows := [][]string{
		{"A", "Rural population"},
		{"B", "Rural population"},
		{"C", "Rural population"},
		{"D", "Rural population"},
		{"E", "Rural population"},
		{"F", "Rural population"},
		{"G", "Rural population"},
	}

	out, err := DropFooter(rows, 5)
	require.NoError(t, err)
	assert.Len(t, out, len(rows)-5)
	assert.Equal(t, "A", out[0][0])
	assert.Equal(t, "B", out[1][0])

	_, err = DropFooter(rows[:4], 5)
	assert.True(t, core.IsMalformedInput(err))
}

func TestCleanKeepsNMinusFooterRows(t *testing.T) {
	config := testkit.DefaultExtractConfig()
	config.Countries = []string{"A", "B", "C"}
	raw := rawFrom(t, config)

	table, err := Clean(raw, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, len(raw.Rows)-DefaultFooterRows, table.Len())
}

func TestCleanFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*testkit.ExtractConfig)
		check  func(error) bool
	}{
		{
			name:   "missing country code",
			mutate: func(c *testkit.ExtractConfig) { c.OmitColumns = []string{"Country Code"} },
			check:  core.IsMalformedInput,
		},
		{
			name:   "missing dropped year",
			mutate: func(c *testkit.ExtractConfig) { c.OmitColumns = []string{testkit.YearHeader(2005)} },
			check:  core.IsMalformedInput,
		},
		{
			name:   "missing series",
			mutate: func(c *testkit.ExtractConfig) { c.OmitColumns = []string{"Series"} },
			check:  core.IsMalformedInput,
		},
		{
			name: "only footer rows",
			mutate: func(c *testkit.ExtractConfig) {
				c.Countries = nil
			},
			check: core.IsMalformedInput,
		},
		{
			name: "fewer rows than the footer",
			mutate: func(c *testkit.ExtractConfig) {
				c.Countries = nil
				c.FooterRows = 3
			},
			check: core.IsMalformedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testkit.DefaultExtractConfig()
			tt.mutate(&config)
			_, err := Clean(rawFrom(t, config), DefaultOptions())
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestCleanRejectsNonNumericCells(t *testing.T) {
	config := testkit.DefaultExtractConfig()
	raw := rawFrom(t, config)

	col := indexOf(raw.Header, testkit.YearHeader(2016))
	require.GreaterOrEqual(t, col, 0)
	raw.Rows[2][col] = "n/a"

	_, err := Clean(raw, DefaultOptions())
	require.Error(t, err)
	assert.True(t, core.IsTypeCoercion(err))
	assert.Contains(t, err.Error(), "row 4")
	assert.False(t, core.IsMalformedInput(err))
}

func TestCleanKeepsMissingMarkers(t *testing.T) {
	config := testkit.DefaultExtractConfig()
	config.Countries = []string{"A"}
	config.Indicators = []string{testkit.RuralPopulation}
	config.FirstYear = 2013
	config.LastYear = 2015
	config.Values = map[string]map[string][]float64{
		"A": {testkit.RuralPopulation: {1, 2}},
	}

	raw, err := worldbank.NewRawTable("pinned.csv", testkit.NewExtractGenerator(config).Rows())
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.FirstDroppedYear, opts.LastDroppedYear = 0, -1
	table, err := Clean(raw, opts)
	require.NoError(t, err)

	rec := table.Records[0]
	assert.Equal(t, indicators.Float(1), rec.Value("2013"))
	assert.Equal(t, indicators.Float(2), rec.Value("2014"))
	assert.False(t, rec.Value("2015").Valid)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "2013", NormalizeHeader("2013 [YR2013]"))
	assert.Equal(t, "Country", NormalizeHeader("Country"))
	assert.Equal(t, "Series", NormalizeHeader("Series"))
	assert.Equal(t, "Country", NormalizeHeader("Country Name"))
}

func TestCleanSurfacesSpacedIdentityHeader(t *testing.T) {
	raw := &indicators.RawTable{
		Source: "spaced.csv",
		Header: []string{"Country", "Country Name", "Country Code", "Series", "Series Code", "2013 [YR2013]"},
		Rows: [][]string{
			{"A", "A", "AAA", "Rural population", "SP.RUR.TOTL", "1"},
		},
	}
	opts := DefaultOptions()
	opts.FooterRows = 0
	opts.FirstDroppedYear, opts.LastDroppedYear = 0, -1

	_, err := Clean(raw, opts)
	assert.True(t, core.IsMalformedInput(err))
}

func TestTransposeIndex(t *testing.T) {
	config := testkit.DefaultExtractConfig()
	config.Countries = []string{"A", "B", "C"}

	table, err := Clean(rawFrom(t, config), DefaultOptions())
	require.NoError(t, err)

	transposed, err := Transpose(table)
	require.NoError(t, err)

	assert.Equal(t, []int{2013, 2014, 2015, 2016, 2017, 2018, 2019}, transposed.Index())
	for _, row := range transposed.Rows {
		assert.Equal(t, row.Index, row.Years)
		assert.Len(t, row.Values, table.Len())
	}

	require.Len(t, transposed.Labels, table.Len())
	assert.Equal(t, "A", transposed.Labels[0])
	assert.Equal(t, testkit.PopulationDensity, transposed.Series[0])

	col := transposed.Column(3)
	for i, year := range table.YearColumns {
		assert.Equal(t, table.Records[3].Value(year), col[i])
	}
}

func TestTransposeSortsYears(t *testing.T) {
	table, err := indicators.NewCleanedTable([]string{"2019", "2015"}, []indicators.Record{
		{Country: "A", Series: "s", Years: map[string]indicators.Value{"2019": indicators.Float(9), "2015": indicators.Float(5)}},
	})
	require.NoError(t, err)

	transposed, err := Transpose(table)
	require.NoError(t, err)
	assert.Equal(t, []int{2015, 2019}, transposed.Index())
	assert.Equal(t, indicators.Float(5), transposed.Rows[0].Values[0])
}

func TestTransposeEmptyIsMalformed(t *testing.T) {
	table, err := indicators.NewCleanedTable(nil, []indicators.Record{{Country: "A", Series: "s"}})
	require.NoError(t, err)

	_, err = Transpose(table)
	assert.True(t, core.IsMalformedInput(err))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := newTestLoader(DefaultOptions()).Load(context.Background(), "does-not-exist.csv")
	assert.Error(t, err)
}

func TestDetectFooterRows(t *testing.T) {
	config := testkit.DefaultExtractConfig()
	assert.Equal(t, DefaultFooterRows, DetectFooterRows(rawFrom(t, config)))

	config.FooterRows = 3
	assert.Equal(t, 3, DetectFooterRows(rawFrom(t, config)))

	config.OmitColumns = []string{indicators.ColumnSeries}
	assert.Equal(t, -1, DetectFooterRows(rawFrom(t, config)))
}

func TestLoadWithFooterCheckStillDropsByPosition(t *testing.T) {
	config := testkit.DefaultExtractConfig()
	config.FooterRows = 3
	path, err := testkit.NewExtractGenerator(config).WriteCSV(t.TempDir(), "extract.csv")
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.FooterRows = 3
	opts.DetectFooter = true
	res, err := newTestLoader(opts).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Cleaned.Len())
}
