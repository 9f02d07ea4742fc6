package ports

import (
	"context"

	"wdiviz/domain/run"
)

// ReportWriter exports the record of a run and returns the files written
type ReportWriter interface {
	Write(ctx context.Context, report *run.RunReport) ([]string, error)
}
