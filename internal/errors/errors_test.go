package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := ConfigInvalid("WDI_SOURCE is required")
	wrapped := Wrap(base, "failed to load configuration")

	assert.Equal(t, CodeConfigInvalid, GetCode(wrapped))
	assert.Equal(t, "failed to load configuration: WDI_SOURCE is required", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	wrapped := Wrapf(fs.ErrNotExist, "opening %s", "data.csv")

	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.ErrorIs(t, wrapped, fs.ErrNotExist)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Nil(t, Wrapf(nil, "nothing %d", 1))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeInvalidInput, GetCode(InvalidInput("bad flag")))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
}

func TestConstructors(t *testing.T) {
	cause := fmt.Errorf("disk full")

	assert.Equal(t, CodeRenderError, RenderError("plot", cause).Code)
	assert.Equal(t, "plot renderer failed: disk full", RenderError("plot", cause).Error())
	assert.Equal(t, CodeExportError, ExportError("workbook", cause).Code)
	assert.Equal(t, CodeSourceError, SourceError("x.csv", cause).Code)
}
