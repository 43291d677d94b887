package ocr

import (
	"regexp"
	"strings"
)

// Light-touch cleaning of raw OCR output: strips zero-width unicode,
// drops standalone image-filename lines, normalizes line endings, and
// collapses excessive blank lines.
var (
	zeroWidthChars     = regexp.MustCompile("[\u200B-\u200D\uFEFF\u00AD\u2060]")
	standaloneImgName  = regexp.MustCompile(`(?mi)^[\w-]*(?:img|image|figure|fig|photo|pic)[\w-]*\.(jpeg|jpg|png|gif|webp|svg|bmp|tiff?)[ \t]*$`)
	standaloneFileName = regexp.MustCompile(`(?mi)^[\w-]+\.(jpeg|jpg|png|gif|webp|svg|bmp|tiff?)[ \t]*$`)
	excessiveNewlines  = regexp.MustCompile(`\n{4,}`)
	trailingSpaces     = regexp.MustCompile(`(?m)[ \t]+$`)
)

func cleanText(text string) string {
	if text == "" {
		return ""
	}

	text = zeroWidthChars.ReplaceAllString(text, "")
	text = standaloneImgName.ReplaceAllString(text, "")
	text = standaloneFileName.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = trailingSpaces.ReplaceAllString(text, "")
	text = excessiveNewlines.ReplaceAllString(text, "\n\n\n")

	return strings.TrimSpace(text)
}
