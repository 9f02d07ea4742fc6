package worldbank

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"wdiviz/domain/core"
	"wdiviz/internal"
	apperrors "wdiviz/internal/errors"
	"wdiviz/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVWithBOMAndRaggedFooter(t *testing.T) {
	data := "\ufeffCountry , Series,2013 [YR2013]\nKenya,Rural population, 34 \nData from database: WDI\n"
	path := filepath.Join(t.TempDir(), "extract.csv")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	raw, err := NewReader(internal.NewNopLogger()).Read(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Country", "Series", "2013 [YR2013]"}, raw.Header)
	assert.Equal(t, [][]string{
		{"Kenya", "Rural population", "34"},
		{"Data from database: WDI", "", ""},
	}, raw.Rows)
	assert.Equal(t, core.NewHash([]byte(data)).String(), raw.Hash)
}

func TestReadXLSXMatchesCSV(t *testing.T) {
	dir := t.TempDir()
	gen := testkit.NewExtractGenerator(testkit.DefaultExtractConfig())
	csvPath, err := gen.WriteCSV(dir, "extract.csv")
	require.NoError(t, err)
	xlsxPath, err := testkit.NewExtractGenerator(testkit.DefaultExtractConfig()).WriteXLSX(dir, "extract.xlsx")
	require.NoError(t, err)

	reader := NewReader(internal.NewNopLogger())
	fromCSV, err := reader.Read(context.Background(), csvPath)
	require.NoError(t, err)
	fromXLSX, err := reader.Read(context.Background(), xlsxPath)
	require.NoError(t, err)

	// 8 countries x 5 indicators, then the footer
	require.GreaterOrEqual(t, len(fromXLSX.Rows), 40)
	assert.Equal(t, fromCSV.Header, fromXLSX.Header)
	assert.Equal(t, fromCSV.Rows[:40], fromXLSX.Rows[:40])
}

func TestReadErrors(t *testing.T) {
	reader := NewReader(internal.NewNopLogger())
	dir := t.TempDir()

	_, err := reader.Read(context.Background(), filepath.Join(dir, "missing.csv"))
	assert.Equal(t, apperrors.CodeSourceError, apperrors.GetCode(err))

	unsupported := filepath.Join(dir, "extract.json")
	require.NoError(t, os.WriteFile(unsupported, []byte("{}"), 0o644))
	_, err = reader.Read(context.Background(), unsupported)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = reader.Read(context.Background(), empty)
	assert.True(t, core.IsMalformedInput(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = reader.Read(ctx, empty)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileTypeOf(t *testing.T) {
	assert.Equal(t, "csv", fileTypeOf("a.CSV"))
	assert.Equal(t, "xlsx", fileTypeOf("a.xlsx"))
	assert.Equal(t, "json", fileTypeOf("a.json"))
}
