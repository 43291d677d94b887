package kreuzberg

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShieldCallPassesThroughSuccess(t *testing.T) {
	s := NewShield()

	got, err := ShieldCall(s, "ok", func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, "", s.LastErrorMessage())
	assert.Equal(t, ErrCodeNone, s.LastErrorCode())
	assert.Nil(t, s.LastPanicContext())
}

func TestShieldCallCapturesPanic(t *testing.T) {
	s := NewShield()

	got, err := ShieldCall(s, "explode", func() (string, error) {
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Equal(t, "", got)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindPanic, e.Kind)
	assert.Equal(t, "kaboom", e.Message)

	pc := s.LastPanicContext()
	require.NotNil(t, pc)
	assert.Equal(t, "kaboom", pc.Message)
	assert.Equal(t, "explode", pc.Function)
	assert.Contains(t, pc.File, "shield_test.go")
	assert.Greater(t, pc.Line, 0)
	assert.False(t, pc.Timestamp.IsZero())

	assert.Equal(t, KindPanic.Code(), s.LastErrorCode())
	assert.Contains(t, s.LastErrorMessage(), "kaboom")
}

func TestShieldCallCapturesErrorPanicValue(t *testing.T) {
	s := NewShield()

	_, err := ShieldCall(s, "typed", func() (struct{}, error) {
		panic(NewError(KindParsing, "structured panic"))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "structured panic")
}

func TestShieldCallRecordsReturnedErrors(t *testing.T) {
	s := NewShield()

	_, err := ShieldCall(s, "fails", func() (struct{}, error) {
		return struct{}{}, NewError(KindOcr, "backend offline")
	})
	require.Error(t, err)
	assert.Equal(t, KindOcr.Code(), s.LastErrorCode())
	assert.Contains(t, s.LastErrorMessage(), "backend offline")
	assert.Nil(t, s.LastPanicContext())
}

func TestShieldClearLastError(t *testing.T) {
	s := NewShield()

	_, _ = ShieldCall(s, "boom", func() (struct{}, error) { panic("x") })
	require.NotEqual(t, ErrCodeNone, s.LastErrorCode())

	s.ClearLastError()
	assert.Equal(t, ErrCodeNone, s.LastErrorCode())
	assert.Equal(t, "", s.LastErrorMessage())
	assert.Nil(t, s.LastPanicContext())
}

func TestPanicMessageTruncation(t *testing.T) {
	long := strings.Repeat("a", 10000)
	msg := panicMessage(long)
	assert.LessOrEqual(t, len(msg), maxPanicMessageLen+len("... [truncated]"))
	assert.True(t, strings.HasSuffix(msg, "... [truncated]"))
}

func TestPanicMessageTruncationRuneBoundary(t *testing.T) {
	// Multi-byte runes straddling the cut must not be split.
	long := strings.Repeat("é", 5000) // 2 bytes each
	msg := panicMessage(long)
	trimmed := strings.TrimSuffix(msg, "... [truncated]")
	assert.True(t, utf8.ValidString(trimmed))
	assert.True(t, strings.HasSuffix(trimmed, "é"))
}

func TestPanicContextFormat(t *testing.T) {
	pc := &PanicContext{File: "x.go", Line: 12, Function: "do", Message: "bad"}
	assert.Equal(t, "Panic at x.go:12:do - bad", pc.Format())
}

func TestDefaultShieldIsShared(t *testing.T) {
	assert.Same(t, DefaultShield(), DefaultShield())
}
