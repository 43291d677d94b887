package kreuzberg

import (
	"errors"
	"fmt"
)

// Kind classifies an extraction error. Each kind has a stable numeric
// code so bindings in other languages can match on it without string
// comparisons. New kinds must be appended before KindCount.
type Kind int32

const (
	KindIo Kind = iota
	KindParsing
	KindOcr
	KindValidation
	KindCache
	KindImageProcessing
	KindSerialization
	KindMissingDependency
	KindPlugin
	KindLockPoisoned
	KindUnsupportedFormat
	KindPanic
	KindOther

	// KindCount is the number of error kinds; valid codes are
	// 0 <= code < KindCount.
	KindCount
)

func (k Kind) String() string {
	switch k {
	case KindIo:
		return "IOError"
	case KindParsing:
		return "ParsingError"
	case KindOcr:
		return "OCRError"
	case KindValidation:
		return "ValidationError"
	case KindCache:
		return "CacheError"
	case KindImageProcessing:
		return "ImageProcessingError"
	case KindSerialization:
		return "SerializationError"
	case KindMissingDependency:
		return "MissingDependencyError"
	case KindPlugin:
		return "PluginError"
	case KindLockPoisoned:
		return "LockPoisonedError"
	case KindUnsupportedFormat:
		return "UnsupportedFormatError"
	case KindPanic:
		return "PanicError"
	default:
		return "Error"
	}
}

// Code returns the stable numeric code for cross-language consumption.
func (k Kind) Code() int32 { return int32(k) }

// PipelineStage identifies the pipeline step an error originated from.
type PipelineStage string

const (
	StageDetect      PipelineStage = "detect"
	StageSelect      PipelineStage = "select"
	StageExtract     PipelineStage = "extract"
	StageOCR         PipelineStage = "ocr"
	StagePostProcess PipelineStage = "post-process"
	StageValidate    PipelineStage = "validate"
	StageChunk       PipelineStage = "chunk"
)

// Error is the single error type surfaced by this library.
type Error struct {
	Kind    Kind
	Message string

	// PluginName is set when Kind is KindPlugin.
	PluginName string

	// Stage is set when the error occurred inside the pipeline.
	Stage PipelineStage

	// Panic carries the capture site when Kind is KindPanic.
	Panic *PanicContext

	cause error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindPlugin && e.PluginName != "":
		return fmt.Sprintf("%s: plugin %q: %s", e.Kind, e.PluginName, e.Message)
	case e.Stage != "":
		return fmt.Sprintf("%s: %s stage: %s", e.Kind, e.Stage, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches errors by kind so callers can write
// errors.Is(err, &Error{Kind: KindValidation}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// WithStage returns a copy of the error tagged with the given pipeline
// stage. The first tag wins; errors already tagged pass through.
func (e *Error) WithStage(stage PipelineStage) *Error {
	if e.Stage != "" {
		return e
	}
	cp := *e
	cp.Stage = stage
	return &cp
}

// NewError builds an Error of the given kind with a formatted message.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps err into an Error of the given kind, preserving the
// cause for errors.Is/As.
func WrapError(kind Kind, err error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if msg == "" && err != nil {
		msg = err.Error()
	} else if err != nil {
		msg = msg + ": " + err.Error()
	}
	return &Error{Kind: kind, Message: msg, cause: err}
}

// PluginError builds a KindPlugin error carrying the offending plugin's
// name.
func PluginError(name string, err error) *Error {
	return &Error{
		Kind:       KindPlugin,
		Message:    err.Error(),
		PluginName: name,
		cause:      err,
	}
}

// AsError coerces any error into *Error. Unknown error values map to
// KindOther so the taxonomy is always total.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindOther, Message: err.Error(), cause: err}
}
