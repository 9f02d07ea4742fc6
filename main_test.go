package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"wdiviz/domain/core"
	"wdiviz/internal"
	"wdiviz/internal/config"
	apperrors "wdiviz/internal/errors"
	"wdiviz/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietConfig(path string) *config.Config {
	cfg := config.Default()
	cfg.Source.Path = path
	cfg.Output.Display = false
	return cfg
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitInputError, exitCode(apperrors.SourceError("wdi.csv", errors.New("no such file"))))
	assert.Equal(t, exitInputError, exitCode(fmt.Errorf("load: %w", core.NewMalformedInputError("empty file"))))
	assert.Equal(t, exitFailed, exitCode(errors.New("boom")))
}

func TestRunMissingSourceIsInputError(t *testing.T) {
	cfg := quietConfig(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Equal(t, exitInputError, run(cfg, internal.NewNopLogger()))
}

func TestRunSucceeds(t *testing.T) {
	path, err := testkit.NewExtractGenerator(testkit.DefaultExtractConfig()).WriteCSV(t.TempDir(), "extract.csv")
	require.NoError(t, err)

	assert.Equal(t, exitOK, run(quietConfig(path), internal.NewNopLogger()))
}
