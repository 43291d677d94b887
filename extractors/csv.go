package extractors

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"

	kreuzberg "github.com/kreuzberg/kreuzberg-go"
)

// csvExtractor parses delimiter-separated values into both a flat text
// rendering and a structured table. The first row is treated as the
// header.
type csvExtractor struct {
	base
}

func (c *csvExtractor) SupportedMimeTypes() []string {
	return []string{"text/csv", "text/tab-separated-values"}
}

func (c *csvExtractor) Priority() int { return kreuzberg.DefaultPriority }

func (c *csvExtractor) ExtractBytes(_ context.Context, content []byte, mimeType string, _ *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	r := csv.NewReader(bytes.NewReader(content))
	if mimeType == "text/tab-separated-values" {
		r.Comma = '\t'
	}
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, kreuzberg.WrapError(kreuzberg.KindParsing, err, "parse csv")
	}
	if len(records) == 0 {
		return &kreuzberg.ExtractionResult{MimeType: mimeType}, nil
	}

	table := kreuzberg.Table{Header: records[0]}
	if len(records) > 1 {
		table.Rows = records[1:]
	}

	var b strings.Builder
	for _, rec := range records {
		b.WriteString(strings.Join(rec, " "))
		b.WriteString("\n")
	}

	return &kreuzberg.ExtractionResult{
		Content:  strings.TrimSpace(b.String()),
		MimeType: mimeType,
		Tables:   []kreuzberg.Table{table},
	}, nil
}
