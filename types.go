package kreuzberg

// ErrorMetadata is the per-item failure record embedded in a synthetic
// batch result.
type ErrorMetadata struct {
	Type    string `json:"type" yaml:"type"`
	Message string `json:"message" yaml:"message"`
}

// Metadata carries document-level information gathered during
// extraction. Extractors fill what they know; pipeline stages may add
// to Additional.
type Metadata struct {
	Title      string         `json:"title,omitempty" yaml:"title,omitempty"`
	Author     string         `json:"author,omitempty" yaml:"author,omitempty"`
	Language   string         `json:"language,omitempty" yaml:"language,omitempty"`
	Extractor  string         `json:"extractor,omitempty" yaml:"extractor,omitempty"`
	Error      *ErrorMetadata `json:"error,omitempty" yaml:"error,omitempty"`
	Additional map[string]any `json:"additional,omitempty" yaml:"additional,omitempty"`
}

// Table is a structured table pulled out of a document. Cells are kept
// as strings; interpretation is up to the caller.
type Table struct {
	Header []string   `json:"header,omitempty" yaml:"header,omitempty"`
	Rows   [][]string `json:"rows" yaml:"rows"`
	Page   int        `json:"page,omitempty" yaml:"page,omitempty"`
}

// Chunk is one window of the chunked content.
type Chunk struct {
	Content   string `json:"content" yaml:"content"`
	Index     int    `json:"index" yaml:"index"`
	StartChar int    `json:"start_char" yaml:"start_char"`
	EndChar   int    `json:"end_char" yaml:"end_char"`
}

// ExtractedImage is an embedded image pulled out of a document, kept as
// raw bytes for downstream OCR or storage.
type ExtractedImage struct {
	Data     []byte `json:"data" yaml:"data"`
	MimeType string `json:"mime_type" yaml:"mime_type"`
	Page     int    `json:"page,omitempty" yaml:"page,omitempty"`
}

// PageContent is the per-page text when page extraction is requested.
type PageContent struct {
	Number  int    `json:"number" yaml:"number"`
	Content string `json:"content" yaml:"content"`
}

// ExtractionResult is the output of a single extraction.
type ExtractionResult struct {
	Content  string           `json:"content" yaml:"content"`
	MimeType string           `json:"mime_type" yaml:"mime_type"`
	Metadata Metadata         `json:"metadata" yaml:"metadata"`
	Tables   []Table          `json:"tables,omitempty" yaml:"tables,omitempty"`
	Chunks   []Chunk          `json:"chunks,omitempty" yaml:"chunks,omitempty"`
	Images   []ExtractedImage `json:"images,omitempty" yaml:"images,omitempty"`
	Pages    []PageContent    `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// BytesInput pairs raw content with its declared mime type for batch
// byte extraction.
type BytesInput struct {
	Content  []byte
	MimeType string
}
