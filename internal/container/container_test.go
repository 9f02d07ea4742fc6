package container

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"wdiviz/adapters/report"
	"wdiviz/internal"
	"wdiviz/internal/charts"
	"wdiviz/internal/config"
	"wdiviz/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path, err := testkit.NewExtractGenerator(testkit.DefaultExtractConfig()).WriteCSV(t.TempDir(), "extract.csv")
	require.NoError(t, err)
	cfg := config.Default()
	cfg.Source.Path = path
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil, nil, Options{})
	assert.Error(t, err)
}

func TestDisplayOnlyByDefault(t *testing.T) {
	cfg := testConfig(t)
	c, err := New(cfg, internal.NewNopLogger(), Options{Display: &bytes.Buffer{}})
	require.NoError(t, err)

	assert.Equal(t, []string{"console"}, c.RendererNames())
	assert.Nil(t, c.Reporter)
}

func TestOutputDirWiresExports(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	cfg.Output.Display = false

	c, err := New(cfg, internal.NewNopLogger(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"plot", "excel"}, c.RendererNames())
	require.NotNil(t, c.Reporter)

	result, err := c.Pipeline.Run(context.Background(), cfg.Source.Path)
	require.NoError(t, err)
	assert.True(t, result.Report.Pipeline.Success(), "failures: %v", result.Report.Failures())

	for _, name := range []string{"heatmap.png", "rural-histogram.png", WorkbookFile, report.MarkdownFile, report.HTMLFile} {
		_, err := os.Stat(filepath.Join(cfg.Output.Dir, name))
		assert.NoError(t, err, name)
	}
}

func TestWorkbookCanBeDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Dir = t.TempDir()
	cfg.Output.Display = false
	cfg.Output.Workbook = false

	c, err := New(cfg, internal.NewNopLogger(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"plot"}, c.RendererNames())
}

func TestSelectedFigures(t *testing.T) {
	cfg := testConfig(t)
	var display bytes.Buffer

	c, err := New(cfg, internal.NewNopLogger(), Options{Display: &display, Figures: []string{charts.NameLargestCityPie}})
	require.NoError(t, err)

	result, err := c.Pipeline.Run(context.Background(), cfg.Source.Path)
	require.NoError(t, err)
	require.Len(t, result.Figures, 1)
	assert.Contains(t, display.String(), "%")
}
