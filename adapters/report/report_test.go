package report

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wdiviz/domain/chart"
	"wdiviz/domain/core"
	"wdiviz/domain/indicators"
	"wdiviz/domain/run"
	"wdiviz/domain/stage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *run.RunReport {
	rep := run.NewRunReport(core.RunID("run-1"), "data/wdi.csv")
	rep.Fingerprint = run.NewRunFingerprint(core.NewHash([]byte("csv")), core.NewHash([]byte("cfg")), "dev")
	rep.CleanedRows = 10
	rep.TransposedRows = 7
	rep.Indicators = []string{"Rural population", "Urban | growth"}
	rep.Years = []string{"2013"}
	rep.Missing = []string{"Urban | growth"}
	rep.Summaries = []indicators.SeriesSummary{{
		Series: "Rural population",
		Years:  []string{"2013"},
		Stats:  map[string]indicators.Describe{"2013": {Count: 1, Mean: 5, Std: math.NaN(), Min: 5, Q25: 5, Median: 5, Q75: 5, Max: 5}},
	}}
	matrix := indicators.NewCorrelationMatrix([]string{"Rural population"})
	matrix.R[0][0] = 1
	rep.Matrix = matrix
	rep.Figures = []run.FigureRecord{{
		ID:      "heatmap",
		Kind:    chart.KindHeatmap,
		Title:   "Correlation Heatmap between Indicators for 2013",
		Outputs: []string{"/tmp/out/heatmap.png"},
	}}

	now := time.Now()
	rep.Pipeline.AddResult(stage.NewStageResult(stage.StageLoad, stage.StageKindLoad, now, nil))
	rep.Pipeline.AddResult(stage.NewStageResult(stage.BuildStage("largest-city-pie"), stage.StageKindBuild, now,
		errors.New("insufficient data for analysis: pie chart needs 6 rows, 2 available")))
	return rep
}

func TestMarkdown(t *testing.T) {
	md := string(Markdown(sampleReport()))

	assert.True(t, strings.HasPrefix(md, "# WDI run run-1\n"))
	assert.Contains(t, md, "- Source: `data/wdi.csv`")
	assert.Contains(t, md, "- Stages: 1 ok, 1 failed")
	assert.Contains(t, md, "## Indicators (2013)")
	assert.Contains(t, md, "- Urban | growth (no rows)")
	assert.Contains(t, md, "| 2013 | 1 | 5 | NaN | 5 | 5 | 5 | 5 | 5 |")
	assert.Contains(t, md, "| Rural population | 1.00 |")
	assert.Contains(t, md, "| heatmap | heatmap | Correlation Heatmap between Indicators for 2013 | `heatmap.png` |")
	assert.Contains(t, md, "| build:largest-city-pie | failed |")
	assert.Contains(t, md, "- **build:largest-city-pie**: insufficient data")
}

func TestMarkdownWithoutFailures(t *testing.T) {
	rep := run.NewRunReport(core.RunID("run-2"), "wdi.csv")
	md := string(Markdown(rep))
	assert.Contains(t, md, "No figures were built.")
	assert.Contains(t, md, "## Failures\n\nNone.\n")
	assert.NotContains(t, md, "## Correlation matrix")
}

func TestWriterWritesMarkdownAndHTML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "report")
	paths, err := NewWriter(dir, true, nil).Write(context.Background(), sampleReport())
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, MarkdownFile), filepath.Join(dir, HTMLFile)}, paths)

	page, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>WDI run run-1</title>")
	assert.Contains(t, string(page), "<table>")
}

func TestWriterMarkdownOnly(t *testing.T) {
	dir := t.TempDir()
	paths, err := NewWriter(dir, false, nil).Write(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Len(t, paths, 1)
	_, err = os.Stat(filepath.Join(dir, HTMLFile))
	assert.True(t, os.IsNotExist(err))
}

func TestWriterRejectsIncompleteReport(t *testing.T) {
	_, err := NewWriter(t.TempDir(), false, nil).Write(context.Background(), &run.RunReport{})
	assert.Error(t, err)
}
