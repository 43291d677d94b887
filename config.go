package kreuzberg

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// OcrConfig controls the OCR stage.
type OcrConfig struct {
	// Backend names the OCR backend to use. Empty means dispatch by
	// priority among registered backends.
	Backend  string `json:"backend,omitempty" yaml:"backend,omitempty"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// ChunkingConfig enables the chunking stage. MaxChars bounds each chunk;
// Overlap is carried between consecutive chunks.
type ChunkingConfig struct {
	MaxChars      int  `json:"max_chars,omitempty" yaml:"max_chars,omitempty"`
	Overlap       int  `json:"overlap,omitempty" yaml:"overlap,omitempty"`
	MarkdownAware bool `json:"markdown_aware,omitempty" yaml:"markdown_aware,omitempty"`
}

// PageConfig controls per-page extraction for paginated formats.
type PageConfig struct {
	ExtractPages bool  `json:"extract_pages,omitempty" yaml:"extract_pages,omitempty"`
	Pages        []int `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// ImageConfig controls embedded image extraction.
type ImageConfig struct {
	ExtractImages bool `json:"extract_images,omitempty" yaml:"extract_images,omitempty"`
	OcrImages     bool `json:"ocr_images,omitempty" yaml:"ocr_images,omitempty"`
}

// OutputFormat selects how the pipeline renders final content.
type OutputFormat string

const (
	OutputPlain    OutputFormat = "plain"
	OutputMarkdown OutputFormat = "markdown"
	OutputHTML     OutputFormat = "html"
)

// ExtractionConfig is the per-call configuration. The zero value is a
// valid default: no cache, no forced OCR, no chunking, plain output.
type ExtractionConfig struct {
	UseCache bool `json:"use_cache,omitempty" yaml:"use_cache,omitempty"`
	ForceOCR bool `json:"force_ocr,omitempty" yaml:"force_ocr,omitempty"`

	OutputFormat OutputFormat `json:"output_format,omitempty" yaml:"output_format,omitempty"`

	// MaxConcurrentExtractions bounds batch parallelism. Zero means
	// use the process default.
	MaxConcurrentExtractions int `json:"max_concurrent_extractions,omitempty" yaml:"max_concurrent_extractions,omitempty"`

	OCR      *OcrConfig      `json:"ocr,omitempty" yaml:"ocr,omitempty"`
	Chunking *ChunkingConfig `json:"chunking,omitempty" yaml:"chunking,omitempty"`
	Pages    *PageConfig     `json:"pages,omitempty" yaml:"pages,omitempty"`
	Images   *ImageConfig    `json:"images,omitempty" yaml:"images,omitempty"`

	// Extra holds plugin-specific settings the core passes through
	// untouched.
	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// LoadConfig reads an ExtractionConfig from a YAML file.
func LoadConfig(path string) (*ExtractionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapError(KindIo, err, "read config %s", path)
	}
	var cfg ExtractionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, WrapError(KindSerialization, err, "parse config %s", path)
	}
	return &cfg, nil
}

// Fingerprint returns a stable hash of the settings that affect
// extraction output, used as part of cache keys. Extra keys are sorted
// so map iteration order cannot change the fingerprint.
func (c *ExtractionConfig) Fingerprint() string {
	h := sha256.New()
	if c == nil {
		return hex.EncodeToString(h.Sum(nil))
	}
	fmt.Fprintf(h, "force_ocr=%t;format=%s;", c.ForceOCR, c.OutputFormat)
	if c.OCR != nil {
		fmt.Fprintf(h, "ocr=%s/%s;", c.OCR.Backend, c.OCR.Language)
	}
	if c.Chunking != nil {
		fmt.Fprintf(h, "chunk=%d/%d/%t;", c.Chunking.MaxChars, c.Chunking.Overlap, c.Chunking.MarkdownAware)
	}
	if c.Pages != nil {
		fmt.Fprintf(h, "pages=%t/%v;", c.Pages.ExtractPages, c.Pages.Pages)
	}
	if c.Images != nil {
		fmt.Fprintf(h, "images=%t/%t;", c.Images.ExtractImages, c.Images.OcrImages)
	}
	if len(c.Extra) > 0 {
		keys := make([]string, 0, len(c.Extra))
		for k := range c.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(h, "extra.%s=%v;", k, c.Extra[k])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
