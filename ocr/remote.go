package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	kreuzberg "github.com/kreuzberg/kreuzberg-go"
)

// RemoteBackend sends images to an HTTP OCR API that accepts a JSON
// body with a base64 data URL and responds with per-page markdown.
type RemoteBackend struct {
	// Endpoint is the OCR API URL. Required.
	Endpoint string
	// APIKeyEnv names the env var holding the bearer token, default
	// "KREUZBERG_OCR_API_KEY".
	APIKeyEnv string
	// Model is sent as-is to the API.
	Model string
	// Client defaults to an http.Client with a 60s timeout.
	Client *http.Client

	apiKey string
}

type remotePage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

type remoteResponse struct {
	Pages []remotePage `json:"pages"`
}

func (r *RemoteBackend) Name() string    { return "remote-ocr" }
func (r *RemoteBackend) Version() string { return "1.0.0" }

func (r *RemoteBackend) Initialize() error {
	if strings.TrimSpace(r.Endpoint) == "" {
		return kreuzberg.NewError(kreuzberg.KindValidation, "remote ocr endpoint is required")
	}
	envKey := r.APIKeyEnv
	if envKey == "" {
		envKey = "KREUZBERG_OCR_API_KEY"
	}
	r.apiKey = strings.TrimSpace(os.Getenv(envKey))
	if r.apiKey == "" {
		return kreuzberg.NewError(kreuzberg.KindMissingDependency, "missing %s", envKey)
	}
	if r.Client == nil {
		r.Client = &http.Client{Timeout: 60 * time.Second}
	}
	return nil
}

func (r *RemoteBackend) Shutdown() error { return nil }

func (r *RemoteBackend) SupportedLanguages() []string { return []string{"*"} }

// Remote recognition outranks the local CLI when both are registered.
func (r *RemoteBackend) Priority() int { return kreuzberg.DefaultPriority + 10 }

func (r *RemoteBackend) ProcessImage(ctx context.Context, image []byte, cfg *kreuzberg.OcrConfig) (*kreuzberg.ExtractionResult, error) {
	mime := kreuzberg.DetectMimeType(image, "", "")
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image))

	body := map[string]any{
		"model": r.Model,
		"document": map[string]any{
			"type":     "image_url",
			"imageUrl": dataURL,
		},
	}
	if cfg != nil && cfg.Language != "" {
		body["language"] = cfg.Language
	}

	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, kreuzberg.WrapError(kreuzberg.KindOcr, err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, kreuzberg.WrapError(kreuzberg.KindOcr, err, "remote ocr request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, kreuzberg.NewError(kreuzberg.KindOcr, "remote ocr error %d: %s", resp.StatusCode, string(slurp))
	}

	var parsed remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, kreuzberg.WrapError(kreuzberg.KindSerialization, err, "decode remote ocr response")
	}

	var parts []string
	for _, p := range parsed.Pages {
		md := strings.TrimSpace(p.Markdown)
		if md == "" || md == "." {
			continue
		}
		parts = append(parts, md)
	}

	return &kreuzberg.ExtractionResult{
		Content:  cleanText(strings.Join(parts, "\n\n-----\n\n")),
		MimeType: "text/plain",
	}, nil
}

func (r *RemoteBackend) ProcessFile(ctx context.Context, path string, cfg *kreuzberg.OcrConfig) (*kreuzberg.ExtractionResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, kreuzberg.WrapError(kreuzberg.KindIo, err, "read %s", path)
	}
	return r.ProcessImage(ctx, content, cfg)
}
