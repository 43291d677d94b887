package kreuzberg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectMimeTypeHintWins(t *testing.T) {
	got := DetectMimeType([]byte("<html>"), "application/pdf", "file.html")
	assert.Equal(t, "application/pdf", got)
}

func TestDetectMimeTypeStripsParameters(t *testing.T) {
	got := DetectMimeType(nil, "text/html; charset=utf-8", "")
	assert.Equal(t, "text/html", got)
}

func TestDetectMimeTypeByExtension(t *testing.T) {
	cases := map[string]string{
		"doc.pdf":    "application/pdf",
		"notes.md":   "text/markdown",
		"data.CSV":   "text/csv",
		"conf.yaml":  "application/yaml",
		"conf.yml":   "application/yaml",
		"pic.jpeg":   "image/jpeg",
		"index.html": "text/html",
	}
	for path, want := range cases {
		assert.Equal(t, want, DetectMimeType([]byte("irrelevant"), "", path), path)
	}
}

func TestDetectMimeTypeSniffsContent(t *testing.T) {
	got := DetectMimeType([]byte("%PDF-1.7 something"), "", "")
	assert.Equal(t, "application/pdf", got)

	got = DetectMimeType([]byte("plain old text"), "", "")
	assert.Equal(t, "text/plain", got)
}

func TestDetectMimeTypeEmptyContent(t *testing.T) {
	assert.Equal(t, "application/octet-stream", DetectMimeType(nil, "", ""))
}

func TestIsTextualMime(t *testing.T) {
	assert.True(t, isTextualMime("text/plain"))
	assert.True(t, isTextualMime("text/x-anything"))
	assert.True(t, isTextualMime("application/json"))
	assert.True(t, isTextualMime("application/yaml"))
	assert.False(t, isTextualMime("application/pdf"))
	assert.False(t, isTextualMime("image/png"))
}

func TestIsImageMime(t *testing.T) {
	assert.True(t, isImageMime("image/png"))
	assert.True(t, isImageMime("image/x-custom"))
	assert.False(t, isImageMime("text/plain"))
}

func TestMimeMatches(t *testing.T) {
	match, exact := mimeMatches("text/csv", "text/csv")
	assert.True(t, match)
	assert.True(t, exact)

	match, exact = mimeMatches("text/*", "text/csv")
	assert.True(t, match)
	assert.False(t, exact)

	match, _ = mimeMatches("text/*", "application/json")
	assert.False(t, match)

	match, _ = mimeMatches("text/plain", "text/csv")
	assert.False(t, match)
}
