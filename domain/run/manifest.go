package run

import (
	"fmt"

	"wdiviz/domain/chart"
	"wdiviz/domain/core"
	"wdiviz/domain/indicators"
	"wdiviz/domain/stage"
)

// FigureRecord lists a built figure and where it ended up
type FigureRecord struct {
	ID      core.FigureID `json:"id"`
	Kind    chart.Kind    `json:"kind"`
	Title   string        `json:"title"`
	Outputs []string      `json:"outputs,omitempty"`
}

// RunReport is the record of one pipeline invocation
type RunReport struct {
	RunID       core.RunID     `json:"run_id"`
	Source      string         `json:"source"`
	Fingerprint RunFingerprint `json:"fingerprint"`
	StartedAt   core.Timestamp `json:"started_at"`
	FinishedAt  core.Timestamp `json:"finished_at"`

	CleanedRows    int      `json:"cleaned_rows"`
	TransposedRows int      `json:"transposed_rows"`
	Indicators     []string `json:"indicators"`
	Years          []string `json:"years"`

	// Missing lists configured indicators with no rows in the extract
	Missing []string `json:"missing,omitempty"`

	Summaries []indicators.SeriesSummary    `json:"summaries,omitempty"`
	Matrix    *indicators.CorrelationMatrix `json:"matrix,omitempty"`
	Figures   []FigureRecord                `json:"figures"`
	Pipeline  *stage.PipelineResult         `json:"pipeline"`
}

// NewRunReport starts a report for a run over source
func NewRunReport(runID core.RunID, source string) *RunReport {
	return &RunReport{
		RunID:     runID,
		Source:    source,
		StartedAt: core.Now(),
		Pipeline:  stage.NewPipelineResult(),
	}
}

// Figure returns the record of a built figure
func (r *RunReport) Figure(id core.FigureID) (*FigureRecord, bool) {
	for i := range r.Figures {
		if r.Figures[i].ID == id {
			return &r.Figures[i], true
		}
	}
	return nil, false
}

// Failures returns the failed stages
func (r *RunReport) Failures() []stage.StageResult {
	return r.Pipeline.Failures()
}

// Validate checks that the report is complete
func (r *RunReport) Validate() error {
	if core.ID(r.RunID).IsEmpty() {
		return fmt.Errorf("run report: run_id cannot be empty")
	}
	if r.Source == "" {
		return fmt.Errorf("run report: source cannot be empty")
	}
	if r.Pipeline == nil {
		return fmt.Errorf("run report: pipeline result missing")
	}
	return nil
}
