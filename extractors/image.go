package extractors

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	kreuzberg "github.com/kreuzberg/kreuzberg-go"
)

// imageExtractor produces no text itself: it records the image's
// dimensions and attaches the raw bytes so the OCR stage can recognize
// the content.
type imageExtractor struct {
	base
}

func (i *imageExtractor) SupportedMimeTypes() []string {
	return []string{"image/*"}
}

func (i *imageExtractor) Priority() int { return kreuzberg.DefaultPriority - 10 }

func (i *imageExtractor) ExtractBytes(_ context.Context, content []byte, mimeType string, _ *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	result := &kreuzberg.ExtractionResult{
		MimeType: mimeType,
		Images:   []kreuzberg.ExtractedImage{{Data: content, MimeType: mimeType}},
	}
	if dims, _, err := image.DecodeConfig(bytes.NewReader(content)); err == nil {
		result.Metadata.Additional = map[string]any{
			"width":  dims.Width,
			"height": dims.Height,
		}
	}
	return result, nil
}
