package testkit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// The five indicators of the reference run
const (
	PopulationDensity   = "Population density (people per sq. km of land area)"
	RuralPopulation     = "Rural population"
	UrbanPopulationPct  = "Urban population (% of total population)"
	UrbanGrowth         = "Urban population growth (annual %)"
	LargestCityShare    = "Population in the largest city (% of urban population)"
	defaultFooterLength = 5
)

// ReferenceIndicators lists the indicators in extract order
var ReferenceIndicators = []string{
	PopulationDensity,
	RuralPopulation,
	UrbanPopulationPct,
	UrbanGrowth,
	LargestCityShare,
}

var seriesCodes = map[string]string{
	PopulationDensity:  "EN.POP.DNST",
	RuralPopulation:    "SP.RUR.TOTL",
	UrbanPopulationPct: "SP.URB.TOTL.IN.ZS",
	UrbanGrowth:        "SP.URB.GROW",
	LargestCityShare:   "EN.URB.LCTY.UR.ZS",
}

// ExtractConfig configures the synthetic DataBank extract
type ExtractConfig struct {
	Countries   []string `json:"countries"`
	Indicators  []string `json:"indicators"`
	FirstYear   int      `json:"first_year"`
	LastYear    int      `json:"last_year"`
	MissingRate float64  `json:"missing_rate"`
	FooterRows  int      `json:"footer_rows"`
	Seed        int64    `json:"seed"`

	// OmitColumns drops header columns by exact name, to build malformed extracts
	OmitColumns []string `json:"omit_columns,omitempty"`

	// Values pins the series of a (country, indicator) pair, one value per year
	// starting at FirstYear. NaN entries are written as "..".
	Values map[string]map[string][]float64 `json:"-"`
}

// DefaultExtractConfig returns an extract shaped like the reference download
func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{
		Countries:   []string{"Nigeria", "Kenya", "India", "Brazil", "Germany", "Japan", "Mexico", "Egypt, Arab Rep."},
		Indicators:  append([]string(nil), ReferenceIndicators...),
		FirstYear:   2001,
		LastYear:    2019,
		MissingRate: 0,
		FooterRows:  defaultFooterLength,
		Seed:        42,
	}
}

// ExtractGenerator builds DataBank-style extracts
type ExtractGenerator struct {
	config ExtractConfig
	rng    *rand.Rand
}

// NewExtractGenerator creates a generator for config
func NewExtractGenerator(config ExtractConfig) *ExtractGenerator {
	return &ExtractGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// YearHeader formats a year the way DataBank labels its columns
func YearHeader(year int) string {
	return fmt.Sprintf("%d [YR%d]", year, year)
}

// Rows returns header, data rows and footer rows
func (g *ExtractGenerator) Rows() [][]string {
	omit := make(map[string]bool, len(g.config.OmitColumns))
	for _, c := range g.config.OmitColumns {
		omit[c] = true
	}

	fullHeader := []string{"Country", "Country Code", "Series", "Series Code"}
	for y := g.config.FirstYear; y <= g.config.LastYear; y++ {
		fullHeader = append(fullHeader, YearHeader(y))
	}

	keep := make([]bool, len(fullHeader))
	var header []string
	for i, h := range fullHeader {
		keep[i] = !omit[h]
		if keep[i] {
			header = append(header, h)
		}
	}

	rows := [][]string{header}
	for _, country := range g.config.Countries {
		for _, indicator := range g.config.Indicators {
			full := []string{country, countryCode(country), indicator, seriesCodes[indicator]}
			full = append(full, g.seriesValues(country, indicator)...)

			row := make([]string, 0, len(header))
			for i, cell := range full {
				if keep[i] {
					row = append(row, cell)
				}
			}
			rows = append(rows, row)
		}
	}

	return append(rows, g.footer(len(header))...)
}

// CSV encodes the extract as DataBank writes it
func (g *ExtractGenerator) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(g.Rows()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes the extract to dir/name and returns the path
func (g *ExtractGenerator) WriteCSV(dir, name string) (string, error) {
	data, err := g.CSV()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteXLSX writes the extract as a single-sheet workbook and returns the path
func (g *ExtractGenerator) WriteXLSX(dir, name string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for r, row := range g.Rows() {
		for c, cell := range row {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return "", err
			}
			if err := f.SetCellStr(sheet, ref, cell); err != nil {
				return "", err
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func (g *ExtractGenerator) seriesValues(country, indicator string) []string {
	years := g.config.LastYear - g.config.FirstYear + 1
	cells := make([]string, years)

	if pinned, ok := g.config.Values[country][indicator]; ok {
		for i := range cells {
			cells[i] = ".."
			if i < len(pinned) && !math.IsNaN(pinned[i]) {
				cells[i] = strconv.FormatFloat(pinned[i], 'f', -1, 64)
			}
		}
		return cells
	}

	base, drift := g.baseline(indicator)
	level := base * (0.5 + g.rng.Float64())
	for i := range cells {
		if g.rng.Float64() < g.config.MissingRate {
			cells[i] = ".."
			continue
		}
		level += drift * (g.rng.Float64() - 0.3)
		cells[i] = strconv.FormatFloat(level, 'f', 4, 64)
	}
	return cells
}

func (g *ExtractGenerator) baseline(indicator string) (base, drift float64) {
	switch indicator {
	case PopulationDensity:
		return 150, 2
	case RuralPopulation:
		return 40_000_000, 250_000
	case UrbanPopulationPct:
		return 55, 0.4
	case UrbanGrowth:
		return 2.5, 0.1
	case LargestCityShare:
		return 25, 0.2
	default:
		return 10, 1
	}
}

// footer mimics the notes DataBank appends below the data
func (g *ExtractGenerator) footer(width int) [][]string {
	notes := []string{
		"",
		"",
		"Data from database: World Development Indicators",
		"Last Updated: 10/26/2023",
		"Code: WDI",
	}
	rows := make([][]string, 0, g.config.FooterRows)
	for i := 0; i < g.config.FooterRows; i++ {
		row := make([]string, width)
		row[0] = notes[i%len(notes)]
		rows = append(rows, row)
	}
	return rows
}

func countryCode(country string) string {
	code := strings.ToUpper(strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, country))
	if len(code) > 3 {
		code = code[:3]
	}
	return code
}
