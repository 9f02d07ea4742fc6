package stage

import (
	"time"
)

// StageName represents a named stage in the pipeline
type StageName string

// StageKind categorizes stages by function
type StageKind string

const (
	StageKindLoad      StageKind = "load"      // read and reshape the extract
	StageKindAggregate StageKind = "aggregate" // describe, pivot, correlate
	StageKindBuild     StageKind = "build"     // one chart builder
	StageKindRender    StageKind = "render"    // one renderer on one figure
	StageKindExport    StageKind = "export"    // tables, workbook, report
)

// Predefined stage names. Build and render stages are named per figure.
const (
	StageLoad      StageName = "load"
	StageAggregate StageName = "aggregate"
	StageTables    StageName = "tables"
	StageReport    StageName = "report"
)

// BuildStage names the stage building figure
func BuildStage(figure string) StageName {
	return StageName("build:" + figure)
}

// RenderStage names the stage rendering figure with renderer
func RenderStage(renderer, figure string) StageName {
	return StageName("render:" + renderer + "/" + figure)
}

// FinishStage names the stage flushing a buffering renderer
func FinishStage(renderer string) StageName {
	return StageName("finish:" + renderer)
}

// StageResult represents the outcome of one stage execution
type StageResult struct {
	StageName StageName `json:"stage_name"`
	Kind      StageKind `json:"kind"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
	Duration  int64     `json:"duration_ms"` // milliseconds
}

// NewStageResult records a finished stage. A nil err marks it successful.
func NewStageResult(name StageName, kind StageKind, started time.Time, err error) StageResult {
	result := StageResult{
		StageName: name,
		Kind:      kind,
		Success:   err == nil,
		Duration:  time.Since(started).Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

// PipelineResult contains the results of every stage of one run
type PipelineResult struct {
	Results []StageResult   `json:"results"`
	Overall PipelineSummary `json:"overall"`
}

// PipelineSummary provides high-level pipeline statistics
type PipelineSummary struct {
	TotalStages   int   `json:"total_stages"`
	Successful    int   `json:"successful"`
	Failed        int   `json:"failed"`
	TotalDuration int64 `json:"total_duration_ms"`
}

// NewPipelineResult creates an empty pipeline result
func NewPipelineResult() *PipelineResult {
	return &PipelineResult{
		Results: make([]StageResult, 0),
		Overall: PipelineSummary{},
	}
}

// AddResult adds a stage result and updates summary
func (r *PipelineResult) AddResult(result StageResult) {
	r.Results = append(r.Results, result)
	r.Overall.TotalStages++

	if result.Success {
		r.Overall.Successful++
	} else {
		r.Overall.Failed++
	}

	r.Overall.TotalDuration += result.Duration
}

// Success returns true if all stages succeeded
func (r *PipelineResult) Success() bool {
	return r.Overall.Failed == 0
}

// Failures returns the failed stages in run order
func (r *PipelineResult) Failures() []StageResult {
	var failed []StageResult
	for _, result := range r.Results {
		if !result.Success {
			failed = append(failed, result)
		}
	}
	return failed
}

// ByKind returns all results of a specific kind
func (r *PipelineResult) ByKind(kind StageKind) []StageResult {
	var result []StageResult
	for _, res := range r.Results {
		if res.Kind == kind {
			result = append(result, res)
		}
	}
	return result
}

// Lookup returns the result of a named stage
func (r *PipelineResult) Lookup(name StageName) (StageResult, bool) {
	for _, res := range r.Results {
		if res.StageName == name {
			return res, true
		}
	}
	return StageResult{}, false
}
