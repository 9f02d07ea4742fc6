package run

import (
	"errors"
	"testing"
	"time"

	"wdiviz/domain/chart"
	"wdiviz/domain/core"
	"wdiviz/domain/stage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFingerprint_Deterministic(t *testing.T) {
	source := core.NewHash([]byte("Country,Series\n"))
	config := core.NewHash([]byte("years: [2013]"))

	fp1 := NewRunFingerprint(source, config, "1.0.0")
	fp2 := NewRunFingerprint(source, config, "1.0.0")

	assert.Equal(t, fp1.Fingerprint, fp2.Fingerprint)
	assert.Equal(t, source, fp1.SourceHash)
	assert.Equal(t, config, fp1.ConfigHash)
	assert.Len(t, fp1.Fingerprint.String(), 64)
}

func TestRunFingerprint_Unique(t *testing.T) {
	base := NewRunFingerprint("source", "config", "1.0.0")

	testCases := []struct {
		name string
		fp   RunFingerprint
	}{
		{"different source", NewRunFingerprint("other", "config", "1.0.0")},
		{"different config", NewRunFingerprint("source", "other", "1.0.0")},
		{"different code version", NewRunFingerprint("source", "config", "1.0.1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEqual(t, base.Fingerprint, tc.fp.Fingerprint)
		})
	}
}

func TestRunReport(t *testing.T) {
	report := NewRunReport(core.NewRunID(), "wdi.csv")
	require.NoError(t, report.Validate())

	report.Figures = append(report.Figures, FigureRecord{ID: "heatmap", Kind: chart.KindHeatmap, Title: "Heatmap"})
	fig, ok := report.Figure("heatmap")
	require.True(t, ok)
	fig.Outputs = append(fig.Outputs, "out/heatmap.png")
	assert.Equal(t, []string{"out/heatmap.png"}, report.Figures[0].Outputs)

	_, ok = report.Figure("pie")
	assert.False(t, ok)

	started := time.Now()
	report.Pipeline.AddResult(stage.NewStageResult(stage.StageLoad, stage.StageKindLoad, started, nil))
	report.Pipeline.AddResult(stage.NewStageResult(stage.BuildStage("pie"), stage.StageKindBuild, started, errors.New("too few rows")))

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, stage.StageName("build:pie"), failures[0].StageName)
	assert.Equal(t, "too few rows", failures[0].Error)
}

func TestRunReportValidate(t *testing.T) {
	assert.Error(t, (&RunReport{Source: "x", Pipeline: stage.NewPipelineResult()}).Validate())
	assert.Error(t, (&RunReport{RunID: "r", Pipeline: stage.NewPipelineResult()}).Validate())
	assert.Error(t, (&RunReport{RunID: "r", Source: "x"}).Validate())
}
