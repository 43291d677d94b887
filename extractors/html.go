package extractors

import (
	"bytes"
	"context"
	"strings"

	kreuzberg "github.com/kreuzberg/kreuzberg-go"
	"golang.org/x/net/html"
)

// htmlExtractor walks the parsed tree collecting visible text, skipping
// script/style/head content. The document title lands in metadata.
type htmlExtractor struct {
	base
}

func (h *htmlExtractor) SupportedMimeTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (h *htmlExtractor) Priority() int { return kreuzberg.DefaultPriority }

// head is walked so the title can be captured; its script/style
// children are skipped individually.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "section": true, "article": true,
}

func (h *htmlExtractor) ExtractBytes(_ context.Context, content []byte, mimeType string, _ *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, kreuzberg.WrapError(kreuzberg.KindParsing, err, "parse html")
	}

	var b strings.Builder
	var title string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if n.Data == "title" && title == "" && n.FirstChild != nil {
				title = strings.TrimSpace(n.FirstChild.Data)
				return
			}
			if skippedElements[n.Data] {
				return
			}
			if blockElements[n.Data] {
				b.WriteString("\n")
			}
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteString(" ")
				}
				b.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := collapseBlankLines(b.String())
	return &kreuzberg.ExtractionResult{
		Content:  text,
		MimeType: mimeType,
		Metadata: kreuzberg.Metadata{Title: title},
	}, nil
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(s)
}
