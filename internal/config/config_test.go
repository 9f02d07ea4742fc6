package config

import (
	"os"
	"path/filepath"
	"testing"

	"wdiviz/internal/aggregate"
	apperrors "wdiviz/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WDI_SOURCE", "WDI_PIPELINE_FILE", "WDI_OUTPUT_DIR", "WDI_FIGURE_FORMAT",
		"WDI_DISPLAY", "WDI_REPORT_HTML", "WDI_WORKBOOK", "WDI_DETECT_FOOTER", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("WDI_SOURCE", "data/wdi.csv")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/wdi.csv", config.Source.Path)
	assert.Equal(t, aggregate.DefaultIndicators, config.Pipeline.Indicators)
	assert.Equal(t, []string{"2013"}, config.Pipeline.Years)
	assert.Equal(t, 5, config.Pipeline.Reshape.FooterRows)
	assert.Equal(t, 2001, config.Pipeline.Reshape.FirstDroppedYear)
	assert.Equal(t, 2012, config.Pipeline.Reshape.LastDroppedYear)
	assert.Equal(t, 6, config.Pipeline.Charts.TopCountries)
	assert.Equal(t, FormatPNG, config.Output.FigureFormat)
	assert.True(t, config.Output.Display)
	assert.Empty(t, config.Output.Dir)
	assert.Equal(t, "INFO", config.LogLevel)
}

func TestLoadRequiresSource(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}

func TestLoadReadsEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("WDI_SOURCE", "wdi.xlsx")
	t.Setenv("WDI_OUTPUT_DIR", "out")
	t.Setenv("WDI_FIGURE_FORMAT", "SVG")
	t.Setenv("WDI_DISPLAY", "false")
	t.Setenv("WDI_DETECT_FOOTER", "true")
	t.Setenv("LOG_LEVEL", "debug")

	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "out", config.Output.Dir)
	assert.Equal(t, FormatSVG, config.Output.FigureFormat)
	assert.False(t, config.Output.Display)
	assert.True(t, config.Pipeline.Reshape.DetectFooter)
	assert.True(t, config.Pipeline.ReshapeOptions().DetectFooter)
	assert.Equal(t, "DEBUG", config.LogLevel)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	clearEnv(t)
	t.Setenv("WDI_SOURCE", "wdi.csv")
	t.Setenv("WDI_FIGURE_FORMAT", "gif")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FigureFormat")
}

func TestPipelineFileOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
indicators:
  - Rural population
years: ["2014", "2015"]
charts:
  top_countries: 4
`), 0o644))
	t.Setenv("WDI_SOURCE", "wdi.csv")
	t.Setenv("WDI_PIPELINE_FILE", path)

	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Rural population"}, config.Pipeline.Indicators)
	assert.Equal(t, []string{"2014", "2015"}, config.Pipeline.Years)
	assert.Equal(t, 4, config.Pipeline.Charts.TopCountries)
	// untouched keys keep their defaults
	assert.Equal(t, 2019, config.Pipeline.Charts.LastYear)
	assert.Equal(t, 5, config.Pipeline.Reshape.FooterRows)
}

func TestExplicitPipelineFileReplacesEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(envFile, []byte("indicators: [Rural population]\ncharts:\n  top_countries: 4\n"), 0o644))
	explicit := filepath.Join(dir, "explicit.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("years: [\"2015\"]\n"), 0o644))
	t.Setenv("WDI_PIPELINE_FILE", envFile)

	config, err := FromEnvWithPipeline(explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, config.Source.PipelineFile)
	assert.Equal(t, []string{"2015"}, config.Pipeline.Years)
	assert.Equal(t, aggregate.DefaultIndicators, config.Pipeline.Indicators)
	assert.Equal(t, 6, config.Pipeline.Charts.TopCountries)

	config, err = FromEnvWithPipeline("")
	require.NoError(t, err)
	assert.Equal(t, envFile, config.Source.PipelineFile)
	assert.Equal(t, 4, config.Pipeline.Charts.TopCountries)
}

func TestPipelineFileRejectsUnknownKeys(t *testing.T) {
	p := Default().Pipeline
	err := p.Decode([]byte("indicatorz: [x]\n"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))

	assert.NoError(t, p.Decode(nil))
}

func TestValidateRanges(t *testing.T) {
	config := Default()
	config.Source.Path = "wdi.csv"
	require.NoError(t, config.Validate())

	config.Pipeline.Years = []string{"13"}
	assert.Error(t, config.Validate())

	config = Default()
	config.Source.Path = "wdi.csv"
	config.Pipeline.Charts.LastYear = 2010
	assert.Error(t, config.Validate())

	config = Default()
	config.Source.Path = "wdi.csv"
	config.Pipeline.Reshape.LastDroppedYear = 1999
	assert.Error(t, config.Validate())
}

func TestPipelineHash(t *testing.T) {
	a := Default().Pipeline
	b := Default().Pipeline
	assert.Equal(t, a.Hash(), b.Hash())

	b.Years = []string{"2014"}
	assert.NotEqual(t, a.Hash(), b.Hash())
}
