// Package ocr provides the built-in OCR backends. Importing it
// registers the tesseract CLI backend when the binary is available:
//
//	import _ "github.com/kreuzberg/kreuzberg-go/ocr"
//
// The remote backend needs an endpoint and is registered explicitly:
//
//	kreuzberg.RegisterOcrBackend(&ocr.RemoteBackend{Endpoint: url})
package ocr

import (
	kreuzberg "github.com/kreuzberg/kreuzberg-go"
)

func init() {
	// Registration runs Initialize, which checks PATH. Hosts without
	// tesseract simply get no local backend.
	_ = kreuzberg.RegisterOcrBackend(&TesseractBackend{})
}
