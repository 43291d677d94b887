// Package kreuzberg is a plugin-based document extraction engine. Raw
// bytes or files go in, structured text comes out: a registry of
// extractors, OCR backends, post-processors, and validators is wired
// into a fixed pipeline, with a bounded batch scheduler on top and a
// panic-safe error shield at the boundary.
package kreuzberg

import (
	"context"
	"os"
)

// ExtractFile runs the extraction pipeline over one file. mimeHint, if
// non-empty, overrides detection; otherwise the extension and content
// decide.
func ExtractFile(ctx context.Context, path string, mimeHint string, cfg *ExtractionConfig) (*ExtractionResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapError(KindIo, err, "read %s", path)
	}
	return runPipeline(ctx, content, mimeHint, path, cfg)
}

// ExtractBytes runs the extraction pipeline over in-memory content.
func ExtractBytes(ctx context.Context, content []byte, mimeType string, cfg *ExtractionConfig) (*ExtractionResult, error) {
	return runPipeline(ctx, content, mimeType, "", cfg)
}
