package kreuzberg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindCodesAreStable(t *testing.T) {
	expected := map[Kind]int32{
		KindIo:                0,
		KindParsing:           1,
		KindOcr:               2,
		KindValidation:        3,
		KindCache:             4,
		KindImageProcessing:   5,
		KindSerialization:     6,
		KindMissingDependency: 7,
		KindPlugin:            8,
		KindLockPoisoned:      9,
		KindUnsupportedFormat: 10,
		KindPanic:             11,
		KindOther:             12,
	}
	for kind, code := range expected {
		assert.Equal(t, code, kind.Code(), kind.String())
	}
	assert.Equal(t, int32(13), KindCount.Code())
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "IOError", KindIo.String())
	assert.Equal(t, "ParsingError", KindParsing.String())
	assert.Equal(t, "OCRError", KindOcr.String())
	assert.Equal(t, "ValidationError", KindValidation.String())
	assert.Equal(t, "LockPoisonedError", KindLockPoisoned.String())
	assert.Equal(t, "UnsupportedFormatError", KindUnsupportedFormat.String())
	assert.Equal(t, "PanicError", KindPanic.String())
	assert.Equal(t, "Error", KindOther.String())
}

func TestErrorMessageRendering(t *testing.T) {
	plain := NewError(KindIo, "disk gone")
	assert.Equal(t, "IOError: disk gone", plain.Error())

	staged := NewError(KindParsing, "bad token").WithStage(StageExtract)
	assert.Equal(t, "ParsingError: extract stage: bad token", staged.Error())

	plugged := PluginError("my-plugin", errors.New("nope"))
	assert.Contains(t, plugged.Error(), `plugin "my-plugin"`)
}

func TestWithStageFirstTagWins(t *testing.T) {
	e := NewError(KindOcr, "x").WithStage(StageOCR).WithStage(StageValidate)
	assert.Equal(t, StageOCR, e.Stage)
}

func TestWrapErrorPreservesCause(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := WrapError(KindCache, cause, "while storing")
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "while storing")
	assert.Contains(t, wrapped.Error(), "root cause")
}

func TestAsErrorCoercion(t *testing.T) {
	assert.Nil(t, AsError(nil))

	typed := NewError(KindOcr, "direct")
	assert.Same(t, typed, AsError(typed))

	wrapped := fmt.Errorf("outer: %w", NewError(KindParsing, "inner"))
	e := AsError(wrapped)
	assert.Equal(t, KindParsing, e.Kind)

	plain := errors.New("anonymous")
	e = AsError(plain)
	require.NotNil(t, e)
	assert.Equal(t, KindOther, e.Kind)
	assert.Equal(t, "anonymous", e.Message)
}

func TestErrorIsMatchesByKind(t *testing.T) {
	err := NewError(KindValidation, "specific message")
	assert.ErrorIs(t, err, &Error{Kind: KindValidation})
	assert.NotErrorIs(t, err, &Error{Kind: KindIo})
}
