package ports

import (
	"context"

	"wdiviz/domain/indicators"
)

// SourceReader loads an extract into raw string rows
type SourceReader interface {
	Read(ctx context.Context, path string) (*indicators.RawTable, error)
}
