package kreuzberg

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// runPipeline executes the fixed stage sequence for a single document:
// Detect, Select, Extract, conditional OCR, Post-process, Validate,
// Chunk. Every plugin invocation is guarded by its own shield so a
// panicking plugin surfaces as an error instead of unwinding the
// caller, and concurrent extractions never share an error slot.
// Stage failures carry their stage tag.
func runPipeline(ctx context.Context, content []byte, mimeHint, path string, cfg *ExtractionConfig) (*ExtractionResult, error) {
	if cfg == nil {
		cfg = &ExtractionConfig{}
	}

	// Detect
	mime := DetectMimeType(content, mimeHint, path)
	if mime == "" {
		return nil, NewError(KindUnsupportedFormat, "could not determine mime type").WithStage(StageDetect)
	}

	var key string
	cache := currentCache()
	if cfg.UseCache && cache != nil {
		key = cacheKey(content, mime, cfg)
		if cached, ok, err := cache.Get(ctx, key); err != nil {
			logger().Warn().Err(err).Msg("cache get failed, continuing without cache")
		} else if ok {
			logger().Debug().Str("mime", mime).Msg("cache hit")
			return cached, nil
		}
	}

	// Select + Extract
	result, err := extractStage(ctx, content, mime, cfg)
	if err != nil {
		return nil, err
	}

	// OCR
	result, err = ocrStage(ctx, result, content, mime, cfg)
	if err != nil {
		return nil, err
	}

	// Post-process
	result, err = postProcessStage(ctx, result, cfg)
	if err != nil {
		return nil, err
	}

	// Validate
	if err := validateStage(ctx, result, cfg); err != nil {
		return nil, err
	}

	// Chunk
	if cfg.Chunking != nil {
		result.Chunks = chunkText(result.Content, cfg.Chunking)
	}

	result.Content = renderOutput(result.Content, cfg.OutputFormat)

	if cfg.UseCache && cache != nil {
		if err := cache.Set(ctx, key, result); err != nil {
			logger().Warn().Err(err).Msg("cache set failed")
		}
	}
	return result, nil
}

// extractStage dispatches to the best extractor for the mime type, with
// built-in fallbacks for textual and image content when no plugin
// claims the type.
func extractStage(ctx context.Context, content []byte, mime string, cfg *ExtractionConfig) (*ExtractionResult, error) {
	if extractor, ok := selectExtractor(mime); ok {
		result, err := ShieldCall(NewShield(), "extract:"+extractor.Name(), func() (*ExtractionResult, error) {
			return extractor.ExtractBytes(ctx, content, mime, cfg)
		})
		if err != nil {
			return nil, AsError(err).WithStage(StageExtract)
		}
		if result == nil {
			return nil, PluginError(extractor.Name(),
				NewError(KindPlugin, "extractor returned no result")).WithStage(StageExtract)
		}
		if result.MimeType == "" {
			result.MimeType = mime
		}
		if result.Metadata.Extractor == "" {
			result.Metadata.Extractor = extractor.Name()
		}
		return result, nil
	}

	switch {
	case isTextualMime(mime):
		return &ExtractionResult{
			Content:  string(content),
			MimeType: mime,
			Metadata: Metadata{Extractor: "builtin-text"},
		}, nil
	case isImageMime(mime):
		// No image extractor registered: hand the raw image straight
		// to OCR dispatch.
		backend, err := selectOcrBackend(cfg.OCR)
		if err != nil {
			return nil, AsError(err).WithStage(StageSelect)
		}
		result, err := ShieldCall(NewShield(), "ocr:"+backend.Name(), func() (*ExtractionResult, error) {
			return backend.ProcessImage(ctx, content, cfg.OCR)
		})
		if err != nil {
			return nil, AsError(err).WithStage(StageOCR)
		}
		if result == nil {
			return nil, PluginError(backend.Name(),
				NewError(KindPlugin, "ocr backend returned no result")).WithStage(StageOCR)
		}
		result.MimeType = mime
		if result.Metadata.Extractor == "" {
			result.Metadata.Extractor = backend.Name()
		}
		return result, nil
	default:
		return nil, NewError(KindUnsupportedFormat, "no extractor registered for %s", mime).WithStage(StageSelect)
	}
}

// ocrStage re-runs recognition when the caller forces it or the
// extracted text fails the quality check. A quality-triggered pass with
// no registered backend degrades to the text-layer output; a forced
// pass without a backend is an error.
func ocrStage(ctx context.Context, result *ExtractionResult, content []byte, mime string, cfg *ExtractionConfig) (*ExtractionResult, error) {
	forced := cfg.ForceOCR
	if !forced {
		if len(result.Images) == 0 && !isImageMime(mime) {
			return result, nil
		}
		decision := scoreQuality(result.Content)
		if !decision.NeedsOCR {
			return result, nil
		}
		logger().Debug().
			Float64("quality", decision.Quality).
			Strs("reasons", decision.Reasons).
			Msg("text layer below quality threshold, trying ocr")
	}

	backend, err := selectOcrBackend(cfg.OCR)
	if err != nil {
		if forced {
			return nil, AsError(err).WithStage(StageOCR)
		}
		logger().Warn().Err(err).Msg("ocr wanted but unavailable, keeping text layer")
		return result, nil
	}

	images := result.Images
	if len(images) == 0 && isImageMime(mime) {
		images = []ExtractedImage{{Data: content, MimeType: mime}}
	}
	if len(images) == 0 {
		return result, nil
	}

	var parts []string
	for _, img := range images {
		img := img
		ocrResult, err := ShieldCall(NewShield(), "ocr:"+backend.Name(), func() (*ExtractionResult, error) {
			return backend.ProcessImage(ctx, img.Data, cfg.OCR)
		})
		if err != nil {
			return nil, AsError(err).WithStage(StageOCR)
		}
		if ocrResult != nil && strings.TrimSpace(ocrResult.Content) != "" {
			parts = append(parts, ocrResult.Content)
		}
	}
	if len(parts) == 0 {
		return result, nil
	}

	ocrText := strings.Join(parts, "\n\n")
	if forced || countWords(ocrText) > countWords(result.Content) {
		result.Content = ocrText
		if result.Metadata.Additional == nil {
			result.Metadata.Additional = map[string]any{}
		}
		result.Metadata.Additional["ocr_backend"] = backend.Name()
	}
	return result, nil
}

// postProcessStage runs every selected processor in stage order Early,
// Middle, Late; inside a stage priority descending, then registration
// order. A processor failure aborts the pipeline.
func postProcessStage(ctx context.Context, result *ExtractionResult, cfg *ExtractionConfig) (*ExtractionResult, error) {
	for _, stage := range []ProcessingStage{ProcessingEarly, ProcessingMiddle, ProcessingLate} {
		for _, proc := range orderedPostProcessors(stage) {
			proc := proc
			if !proc.ShouldProcess(result, cfg) {
				continue
			}
			next, err := ShieldCall(NewShield(), "post-process:"+proc.Name(), func() (*ExtractionResult, error) {
				return proc.Process(ctx, result, cfg)
			})
			if err != nil {
				return nil, AsError(err).WithStage(StagePostProcess)
			}
			if next != nil {
				result = next
			}
		}
	}
	return result, nil
}

// validateStage runs validators priority descending; the first failure
// aborts with a Validation error naming the validator.
func validateStage(ctx context.Context, result *ExtractionResult, cfg *ExtractionConfig) error {
	for _, v := range orderedValidators() {
		v := v
		if !v.ShouldValidate(result, cfg) {
			continue
		}
		_, err := ShieldCall(NewShield(), "validate:"+v.Name(), func() (struct{}, error) {
			return struct{}{}, v.Validate(ctx, result, cfg)
		})
		if err != nil {
			e := AsError(err)
			if e.Kind != KindPanic {
				e = NewError(KindValidation, "validator %q rejected result: %s", v.Name(), e.Message)
			}
			return e.WithStage(StageValidate)
		}
	}
	return nil
}

// renderOutput applies the requested output format to final content.
func renderOutput(content string, format OutputFormat) string {
	switch format {
	case OutputMarkdown:
		return content
	case OutputHTML:
		var b strings.Builder
		for _, para := range strings.Split(content, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(para))
		}
		return b.String()
	default:
		return content
	}
}
