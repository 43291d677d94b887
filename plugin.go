package kreuzberg

import (
	"context"
	"strings"
	"unicode"
)

// DefaultPriority is used by plugins that do not care about ordering.
const DefaultPriority = 50

// Plugin is the common lifecycle shared by every extension point.
// Initialize runs before the plugin becomes visible to dispatch;
// Shutdown runs when it is replaced, unregistered, or cleared.
type Plugin interface {
	Name() string
	Version() string
	Initialize() error
	Shutdown() error
}

// DocumentExtractor turns raw bytes of a supported format into an
// ExtractionResult.
type DocumentExtractor interface {
	Plugin

	ExtractBytes(ctx context.Context, content []byte, mimeType string, cfg *ExtractionConfig) (*ExtractionResult, error)

	// SupportedMimeTypes lists exact mime types and "type/*"
	// wildcards this extractor claims.
	SupportedMimeTypes() []string

	// Priority orders extractors claiming the same mime type.
	// Higher wins.
	Priority() int
}

// OcrBackend recognizes text in images.
type OcrBackend interface {
	Plugin

	ProcessImage(ctx context.Context, image []byte, cfg *OcrConfig) (*ExtractionResult, error)
	ProcessFile(ctx context.Context, path string, cfg *OcrConfig) (*ExtractionResult, error)

	SupportedLanguages() []string
	Priority() int
}

// ProcessingStage orders post-processors into three phases.
type ProcessingStage int

const (
	ProcessingEarly ProcessingStage = iota
	ProcessingMiddle
	ProcessingLate
)

func (s ProcessingStage) String() string {
	switch s {
	case ProcessingEarly:
		return "early"
	case ProcessingMiddle:
		return "middle"
	case ProcessingLate:
		return "late"
	default:
		return "unknown"
	}
}

// PostProcessor mutates a result after extraction. Process receives the
// result and returns the (possibly same) result to pass on.
type PostProcessor interface {
	Plugin

	Process(ctx context.Context, result *ExtractionResult, cfg *ExtractionConfig) (*ExtractionResult, error)
	ProcessingStage() ProcessingStage

	// ShouldProcess lets a processor opt out per document.
	ShouldProcess(result *ExtractionResult, cfg *ExtractionConfig) bool
	Priority() int
}

// Validator inspects a finished result and rejects it with an error.
type Validator interface {
	Plugin

	Validate(ctx context.Context, result *ExtractionResult, cfg *ExtractionConfig) error
	ShouldValidate(result *ExtractionResult, cfg *ExtractionConfig) bool
	Priority() int
}

// validatePluginName rejects names that cannot serve as registry keys.
func validatePluginName(name string) error {
	if name == "" {
		return NewError(KindValidation, "plugin name must not be empty")
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return NewError(KindValidation, "plugin name %q must not contain whitespace", name)
	}
	return nil
}
