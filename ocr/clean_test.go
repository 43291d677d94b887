package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTextEmpty(t *testing.T) {
	assert.Equal(t, "", cleanText(""))
}

func TestCleanTextStripsZeroWidth(t *testing.T) {
	assert.Equal(t, "joined", cleanText("jo\u200bin\ufeffed"))
}

func TestCleanTextDropsStandaloneFilenames(t *testing.T) {
	in := "real content\nIMG_2024.jpg\nmore content\nfigure-3.png\n"
	out := cleanText(in)
	assert.Contains(t, out, "real content")
	assert.Contains(t, out, "more content")
	assert.NotContains(t, out, "IMG_2024.jpg")
	assert.NotContains(t, out, "figure-3.png")
}

func TestCleanTextNormalizesLineEndings(t *testing.T) {
	assert.Equal(t, "a\nb\nc", cleanText("a\r\nb\rc"))
}

func TestCleanTextCollapsesBlankRuns(t *testing.T) {
	out := cleanText("top\n\n\n\n\n\nbottom")
	assert.Equal(t, "top\n\n\nbottom", out)
}

func TestCleanTextTrimsTrailingSpaces(t *testing.T) {
	assert.Equal(t, "line one\nline two", cleanText("line one   \nline two\t\t"))
}
