package extractors

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	kreuzberg "github.com/kreuzberg/kreuzberg-go"
)

// plainExtractor handles any text/* content as-is, normalizing line
// endings and stripping a UTF-8 BOM.
type plainExtractor struct {
	base
}

func (p *plainExtractor) SupportedMimeTypes() []string {
	return []string{"text/plain", "text/markdown", "text/*"}
}

func (p *plainExtractor) Priority() int { return kreuzberg.DefaultPriority - 10 }

func (p *plainExtractor) ExtractBytes(_ context.Context, content []byte, mimeType string, _ *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(content) {
		return nil, kreuzberg.NewError(kreuzberg.KindParsing, "content is not valid utf-8")
	}
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return &kreuzberg.ExtractionResult{
		Content:  text,
		MimeType: mimeType,
	}, nil
}
