package extractors

import (
	"bytes"
	"context"
	"encoding/json"

	kreuzberg "github.com/kreuzberg/kreuzberg-go"
	"gopkg.in/yaml.v3"
)

// jsonExtractor validates and pretty-prints JSON documents.
type jsonExtractor struct {
	base
}

func (j *jsonExtractor) SupportedMimeTypes() []string {
	return []string{"application/json"}
}

func (j *jsonExtractor) Priority() int { return kreuzberg.DefaultPriority }

func (j *jsonExtractor) ExtractBytes(_ context.Context, content []byte, mimeType string, _ *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, content, "", "  "); err != nil {
		return nil, kreuzberg.WrapError(kreuzberg.KindParsing, err, "parse json")
	}
	return &kreuzberg.ExtractionResult{
		Content:  buf.String(),
		MimeType: mimeType,
	}, nil
}

// yamlExtractor validates YAML and re-renders it canonically.
type yamlExtractor struct {
	base
}

func (y *yamlExtractor) SupportedMimeTypes() []string {
	return []string{"application/yaml", "application/x-yaml"}
}

func (y *yamlExtractor) Priority() int { return kreuzberg.DefaultPriority }

func (y *yamlExtractor) ExtractBytes(_ context.Context, content []byte, mimeType string, _ *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	var doc any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, kreuzberg.WrapError(kreuzberg.KindParsing, err, "parse yaml")
	}
	rendered, err := yaml.Marshal(doc)
	if err != nil {
		return nil, kreuzberg.WrapError(kreuzberg.KindSerialization, err, "render yaml")
	}
	return &kreuzberg.ExtractionResult{
		Content:  string(rendered),
		MimeType: mimeType,
	}, nil
}
