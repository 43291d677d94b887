package extractors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kreuzberg "github.com/kreuzberg/kreuzberg-go"
)

func TestBuiltinsAreRegistered(t *testing.T) {
	names := kreuzberg.ListExtractors()
	for _, want := range []string{"plain-text", "html", "pdf", "csv", "json", "yaml", "image"} {
		assert.Contains(t, names, want)
	}
}

func TestPlainExtractor(t *testing.T) {
	e := &plainExtractor{base{"plain-text"}}

	result, err := e.ExtractBytes(context.Background(), []byte("\xef\xbb\xbfline one\r\nline two\rline three"), "text/plain", nil)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\nline three", result.Content)
}

func TestPlainExtractorRejectsInvalidUTF8(t *testing.T) {
	e := &plainExtractor{base{"plain-text"}}

	_, err := e.ExtractBytes(context.Background(), []byte{0xff, 0xfe, 0x80}, "text/plain", nil)
	require.Error(t, err)
	var ke *kreuzberg.Error
	require.ErrorAs(t, err, &ke)
	assert.Equal(t, kreuzberg.KindParsing, ke.Kind)
}

func TestHTMLExtractor(t *testing.T) {
	e := &htmlExtractor{base{"html"}}
	doc := `<!DOCTYPE html>
<html>
<head><title>Sample Page</title><style>body { color: red }</style></head>
<body>
<h1>Heading</h1>
<p>First paragraph.</p>
<script>console.log("ignored")</script>
<p>Second paragraph.</p>
</body>
</html>`

	result, err := e.ExtractBytes(context.Background(), []byte(doc), "text/html", nil)
	require.NoError(t, err)
	assert.Equal(t, "Sample Page", result.Metadata.Title)
	assert.Contains(t, result.Content, "Heading")
	assert.Contains(t, result.Content, "First paragraph.")
	assert.Contains(t, result.Content, "Second paragraph.")
	assert.NotContains(t, result.Content, "console.log")
	assert.NotContains(t, result.Content, "color: red")
}

func TestCSVExtractor(t *testing.T) {
	e := &csvExtractor{base{"csv"}}
	doc := "name,age\nalice,30\nbob,25\n"

	result, err := e.ExtractBytes(context.Background(), []byte(doc), "text/csv", nil)
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)
	assert.Equal(t, []string{"name", "age"}, result.Tables[0].Header)
	assert.Equal(t, [][]string{{"alice", "30"}, {"bob", "25"}}, result.Tables[0].Rows)
	assert.Contains(t, result.Content, "alice 30")
}

func TestCSVExtractorTabSeparated(t *testing.T) {
	e := &csvExtractor{base{"csv"}}
	doc := "a\tb\n1\t2\n"

	result, err := e.ExtractBytes(context.Background(), []byte(doc), "text/tab-separated-values", nil)
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)
	assert.Equal(t, []string{"a", "b"}, result.Tables[0].Header)
}

func TestCSVExtractorMalformed(t *testing.T) {
	e := &csvExtractor{base{"csv"}}

	_, err := e.ExtractBytes(context.Background(), []byte("a,\"unterminated\n"), "text/csv", nil)
	require.Error(t, err)
	var ke *kreuzberg.Error
	require.ErrorAs(t, err, &ke)
	assert.Equal(t, kreuzberg.KindParsing, ke.Kind)
}

func TestJSONExtractor(t *testing.T) {
	e := &jsonExtractor{base{"json"}}

	result, err := e.ExtractBytes(context.Background(), []byte(`{"b":2,"a":1}`), "application/json", nil)
	require.NoError(t, err)
	assert.Contains(t, result.Content, "\"a\": 1")

	_, err = e.ExtractBytes(context.Background(), []byte(`{broken`), "application/json", nil)
	require.Error(t, err)
}

func TestYAMLExtractor(t *testing.T) {
	e := &yamlExtractor{base{"yaml"}}

	result, err := e.ExtractBytes(context.Background(), []byte("key: value\nlist:\n  - 1\n  - 2\n"), "application/yaml", nil)
	require.NoError(t, err)
	assert.Contains(t, result.Content, "key: value")

	_, err = e.ExtractBytes(context.Background(), []byte(":\tbroken: ["), "application/yaml", nil)
	require.Error(t, err)
}

func TestImageExtractorAttachesRawBytes(t *testing.T) {
	e := &imageExtractor{base{"image"}}

	// 1x1 transparent PNG.
	png := []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
		0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
		0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
		0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
	}

	result, err := e.ExtractBytes(context.Background(), png, "image/png", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Content)
	require.Len(t, result.Images, 1)
	assert.Equal(t, "image/png", result.Images[0].MimeType)
	assert.Equal(t, 1, result.Metadata.Additional["width"])
	assert.Equal(t, 1, result.Metadata.Additional["height"])
}

func TestCombinePages(t *testing.T) {
	pages := []kreuzberg.PageContent{
		{Number: 1, Content: "first page"},
		{Number: 2, Content: "   "},
		{Number: 3, Content: "third page"},
	}

	joined := combinePages(pages, "\n\n---\n\n", false)
	assert.Equal(t, "first page\n\n---\n\nthird page", joined)

	numbered := combinePages(pages, "\n\n", true)
	assert.Contains(t, numbered, "## Page 1")
	assert.Contains(t, numbered, "## Page 3")
	assert.NotContains(t, numbered, "## Page 2")
}

func TestWantedPages(t *testing.T) {
	all := wantedPages(nil, 3)
	assert.Equal(t, []int{1, 2, 3}, all)

	cfg := &kreuzberg.ExtractionConfig{Pages: &kreuzberg.PageConfig{Pages: []int{2, 99, 0}}}
	assert.Equal(t, []int{2}, wantedPages(cfg, 3))
}
