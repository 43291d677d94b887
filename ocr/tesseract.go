package ocr

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	kreuzberg "github.com/kreuzberg/kreuzberg-go"
)

// TesseractBackend shells out to the tesseract CLI. Initialize verifies
// the binary is on PATH so registration fails fast on hosts without it.
type TesseractBackend struct {
	// Binary overrides the executable name, default "tesseract".
	Binary string

	resolved string
}

func (t *TesseractBackend) Name() string    { return "tesseract" }
func (t *TesseractBackend) Version() string { return "1.0.0" }

func (t *TesseractBackend) Initialize() error {
	bin := t.Binary
	if bin == "" {
		bin = "tesseract"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return kreuzberg.WrapError(kreuzberg.KindMissingDependency, err, "tesseract not found on PATH")
	}
	t.resolved = path
	return nil
}

func (t *TesseractBackend) Shutdown() error { return nil }

func (t *TesseractBackend) SupportedLanguages() []string {
	return []string{"eng", "deu", "fra", "spa", "ita", "por", "nld"}
}

func (t *TesseractBackend) Priority() int { return kreuzberg.DefaultPriority }

func (t *TesseractBackend) ProcessImage(ctx context.Context, image []byte, cfg *kreuzberg.OcrConfig) (*kreuzberg.ExtractionResult, error) {
	tmpDir, err := os.MkdirTemp("", "kreuzberg-ocr-*")
	if err != nil {
		return nil, kreuzberg.WrapError(kreuzberg.KindIo, err, "temp dir")
	}
	defer os.RemoveAll(tmpDir)

	imgPath := filepath.Join(tmpDir, "input")
	if err := os.WriteFile(imgPath, image, 0o600); err != nil {
		return nil, kreuzberg.WrapError(kreuzberg.KindIo, err, "write image")
	}
	return t.ProcessFile(ctx, imgPath, cfg)
}

func (t *TesseractBackend) ProcessFile(ctx context.Context, path string, cfg *kreuzberg.OcrConfig) (*kreuzberg.ExtractionResult, error) {
	lang := "eng"
	if cfg != nil && cfg.Language != "" {
		lang = cfg.Language
	}

	bin := t.resolved
	if bin == "" {
		bin = "tesseract"
	}
	// "-" writes recognized text to stdout.
	cmd := exec.CommandContext(ctx, bin, path, "-", "-l", lang)
	out, err := cmd.Output()
	if err != nil {
		return nil, kreuzberg.WrapError(kreuzberg.KindOcr, err, "tesseract failed")
	}

	return &kreuzberg.ExtractionResult{
		Content:  cleanText(string(out)),
		MimeType: "text/plain",
		Metadata: kreuzberg.Metadata{
			Additional: map[string]any{"ocr_language": lang},
		},
	}, nil
}
