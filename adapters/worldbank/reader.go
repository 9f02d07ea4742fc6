// Package worldbank reads DataBank extracts from disk. CSV is the native
// export format; the same extract saved as .xlsx is read from its first sheet.
package worldbank

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wdiviz/domain/core"
	"wdiviz/domain/indicators"
	"wdiviz/internal"
	apperrors "wdiviz/internal/errors"

	"github.com/xuri/excelize/v2"
)

const utf8BOM = "\ufeff"

// Reader handles reading CSV and Excel extracts
type Reader struct {
	logger *internal.Logger
}

// NewReader creates a new extract reader
func NewReader(logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{logger: logger}
}

// Read loads the whole file at path into a RawTable
func (r *Reader) Read(ctx context.Context, path string) (*indicators.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.SourceError(path, err)
	}

	fileType := fileTypeOf(path)
	r.logger.Debug("[WorldBankReader] reading %s extract %s (%d bytes)", fileType, path, len(data))

	start := time.Now()
	var rows [][]string
	switch fileType {
	case "csv":
		rows, err = parseCSV(data)
	case "xlsx":
		rows, err = parseExcel(data)
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported file type: %s", fileType))
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("[WorldBankReader] %s parsed in %.2fms (%d rows)", path, float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	table, err := NewRawTable(path, rows)
	if err != nil {
		return nil, err
	}
	table.Hash = core.NewHash(data).String()
	return table, nil
}

// NewRawTable splits rows into header and body, trimming the header and
// padding short rows so every row has one cell per header column
func NewRawTable(source string, rows [][]string) (*indicators.RawTable, error) {
	if len(rows) == 0 {
		return nil, core.NewMalformedInputError("%s has no header row", source)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		header[i] = strings.TrimSpace(h)
	}

	body := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		padded := make([]string, len(header))
		for j := 0; j < len(header) && j < len(row); j++ {
			padded[j] = strings.TrimSpace(row[j])
		}
		body = append(body, padded)
	}

	return &indicators.RawTable{
		Source: source,
		Header: header,
		Rows:   body,
	}, nil
}

func fileTypeOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	case ".csv", ".txt", "":
		return "csv"
	default:
		return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
}

// parseCSV accepts ragged rows: DataBank footers carry fewer fields than data rows
func parseCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return rows, nil
}

func parseExcel(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}
