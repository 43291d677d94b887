// Package ffi is the cross-language boundary for the extraction engine.
// Every entry point is guarded: a panic anywhere below never crosses
// this package. Failures return nil/false sentinels; callers then read
// the error side channel (LastErrorMessage, LastErrorCode,
// LastPanicContext) and reset it with ClearLastError.
package ffi

import (
	"context"

	kreuzberg "github.com/kreuzberg/kreuzberg-go"
)

func shield() *kreuzberg.Shield { return kreuzberg.DefaultShield() }

// ExtractFile extracts one file. Returns nil on failure.
func ExtractFile(path string, cfg *kreuzberg.ExtractionConfig) *kreuzberg.ExtractionResult {
	result, err := kreuzberg.ShieldCall(shield(), "ffi.ExtractFile", func() (*kreuzberg.ExtractionResult, error) {
		return kreuzberg.ExtractFile(context.Background(), path, "", cfg)
	})
	if err != nil {
		return nil
	}
	return result
}

// ExtractBytes extracts in-memory content. Returns nil on failure.
func ExtractBytes(content []byte, mimeType string, cfg *kreuzberg.ExtractionConfig) *kreuzberg.ExtractionResult {
	result, err := kreuzberg.ShieldCall(shield(), "ffi.ExtractBytes", func() (*kreuzberg.ExtractionResult, error) {
		return kreuzberg.ExtractBytes(context.Background(), content, mimeType, cfg)
	})
	if err != nil {
		return nil
	}
	return result
}

// BatchExtractFiles extracts many files. Returns nil on failure;
// otherwise the slice has one entry per input path.
func BatchExtractFiles(paths []string, cfg *kreuzberg.ExtractionConfig) []*kreuzberg.ExtractionResult {
	results, err := kreuzberg.ShieldCall(shield(), "ffi.BatchExtractFiles", func() ([]*kreuzberg.ExtractionResult, error) {
		return kreuzberg.BatchExtractFiles(context.Background(), paths, cfg)
	})
	if err != nil {
		return nil
	}
	return results
}

// BatchExtractBytes extracts many in-memory documents. Returns nil on
// failure.
func BatchExtractBytes(items []kreuzberg.BytesInput, cfg *kreuzberg.ExtractionConfig) []*kreuzberg.ExtractionResult {
	results, err := kreuzberg.ShieldCall(shield(), "ffi.BatchExtractBytes", func() ([]*kreuzberg.ExtractionResult, error) {
		return kreuzberg.BatchExtractBytes(context.Background(), items, cfg)
	})
	if err != nil {
		return nil
	}
	return results
}

// RegisterExtractor registers a plugin from a binding. Returns false on
// failure.
func RegisterExtractor(e kreuzberg.DocumentExtractor) bool {
	_, err := kreuzberg.ShieldCall(shield(), "ffi.RegisterExtractor", func() (struct{}, error) {
		return struct{}{}, kreuzberg.RegisterExtractor(e)
	})
	return err == nil
}

// LastErrorMessage returns the stored boundary error message, or "".
func LastErrorMessage() string { return shield().LastErrorMessage() }

// LastErrorCode returns the stored error code, or -1 when clear.
func LastErrorCode() int32 { return shield().LastErrorCode() }

// LastPanicContext returns the stored panic capture, or nil.
func LastPanicContext() *kreuzberg.PanicContext { return shield().LastPanicContext() }

// ClearLastError resets the side channel.
func ClearLastError() { shield().ClearLastError() }
