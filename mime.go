package kreuzberg

import (
	"net/http"
	"path/filepath"
	"strings"
)

// Extension mapping takes precedence over content sniffing because
// sniffing cannot tell structured text formats apart.
var extensionMimeTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".xml":      "application/xml",
	".csv":      "text/csv",
	".tsv":      "text/tab-separated-values",
	".json":     "application/json",
	".yaml":     "application/yaml",
	".yml":      "application/yaml",
	".toml":     "application/toml",
	".pdf":      "application/pdf",
	".png":      "image/png",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".gif":      "image/gif",
	".bmp":      "image/bmp",
	".tif":      "image/tiff",
	".tiff":     "image/tiff",
	".webp":     "image/webp",
}

// Textual application types handled by the built-in plain-text fallback
// when no extractor claims them.
var textualApplicationTypes = map[string]bool{
	"application/json":        true,
	"application/xml":         true,
	"application/yaml":        true,
	"application/x-yaml":      true,
	"application/toml":        true,
	"application/javascript":  true,
	"application/x-sh":        true,
	"application/sql":         true,
	"application/x-httpd-php": true,
	"application/xhtml+xml":   true,
}

// DetectMimeType resolves the mime type for content. A non-empty hint
// wins; then the file extension; then content sniffing.
func DetectMimeType(content []byte, hint, path string) string {
	if hint != "" {
		// Strip parameters like "; charset=utf-8".
		if mt, _, found := strings.Cut(hint, ";"); found {
			return strings.TrimSpace(mt)
		}
		return hint
	}
	if path != "" {
		if mt, ok := extensionMimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
			return mt
		}
	}
	if len(content) == 0 {
		return "application/octet-stream"
	}
	sniffed := http.DetectContentType(content)
	if mt, _, found := strings.Cut(sniffed, ";"); found {
		return strings.TrimSpace(mt)
	}
	return sniffed
}

// isTextualMime reports whether the built-in plain-text fallback can
// handle the type when dispatch finds no extractor.
func isTextualMime(mime string) bool {
	if strings.HasPrefix(mime, "text/") {
		return true
	}
	return textualApplicationTypes[mime]
}

// isImageMime reports whether the type routes to OCR dispatch.
func isImageMime(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}
