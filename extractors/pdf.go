package extractors

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	kreuzberg "github.com/kreuzberg/kreuzberg-go"
	"github.com/ledongthuc/pdf"
)

const pdfPageSeparator = "\n\n---\n\n"

// pdfExtractor reads the embedded text layer. Scanned PDFs with no text
// layer come back near-empty and fail the quality check downstream,
// which routes them to OCR.
type pdfExtractor struct {
	base
}

func (p *pdfExtractor) SupportedMimeTypes() []string {
	return []string{"application/pdf"}
}

func (p *pdfExtractor) Priority() int { return kreuzberg.DefaultPriority }

func (p *pdfExtractor) ExtractBytes(_ context.Context, content []byte, mimeType string, cfg *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, kreuzberg.WrapError(kreuzberg.KindParsing, err, "open pdf")
	}

	total := reader.NumPage()
	wanted := wantedPages(cfg, total)

	var pages []kreuzberg.PageContent
	for _, num := range wanted {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}
		pages = append(pages, kreuzberg.PageContent{Number: num, Content: text})
	}

	result := &kreuzberg.ExtractionResult{
		Content:  combinePages(pages, pdfPageSeparator, false),
		MimeType: mimeType,
		Metadata: kreuzberg.Metadata{
			Additional: map[string]any{"total_pages": total},
		},
	}
	if cfg != nil && cfg.Pages != nil && cfg.Pages.ExtractPages {
		result.Pages = pages
	}
	return result, nil
}

// wantedPages resolves the page selection against the document size.
// Page numbers are 1-based; out-of-range requests are dropped.
func wantedPages(cfg *kreuzberg.ExtractionConfig, total int) []int {
	if cfg != nil && cfg.Pages != nil && len(cfg.Pages.Pages) > 0 {
		out := make([]int, 0, len(cfg.Pages.Pages))
		for _, n := range cfg.Pages.Pages {
			if n >= 1 && n <= total {
				out = append(out, n)
			}
		}
		return out
	}
	out := make([]int, total)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// combinePages joins non-empty page texts with sep, optionally
// prefixing each with a page heading.
func combinePages(pages []kreuzberg.PageContent, sep string, includePageNums bool) string {
	var b strings.Builder
	first := true
	for _, p := range pages {
		txt := strings.TrimSpace(p.Content)
		if txt == "" {
			continue
		}
		if !first {
			b.WriteString(sep)
		}
		first = false
		if includePageNums {
			fmt.Fprintf(&b, "## Page %d\n\n", p.Number)
		}
		b.WriteString(txt)
	}
	return strings.TrimSpace(b.String())
}
