package kreuzberg

import "strings"

const (
	defaultChunkChars   = 2000
	defaultChunkOverlap = 100
)

// chunkText splits content into character windows. With MarkdownAware
// set, windows end on the nearest paragraph break before the limit when
// one exists; otherwise the cut is a hard character boundary. Overlap
// is carried from the tail of each chunk into the next; when unset it
// defaults to defaultChunkOverlap.
func chunkText(content string, cfg *ChunkingConfig) []Chunk {
	if cfg == nil || content == "" {
		return nil
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = defaultChunkChars
	}
	overlap := cfg.Overlap
	if overlap <= 0 {
		overlap = defaultChunkOverlap
	}
	if overlap >= maxChars {
		overlap = maxChars / 2
	}

	runes := []rune(content)
	if len(runes) <= maxChars {
		return []Chunk{{Content: content, Index: 0, StartChar: 0, EndChar: len(runes)}}
	}

	var chunks []Chunk
	start := 0
	for start < len(runes) {
		end := start + maxChars
		if end >= len(runes) {
			end = len(runes)
		} else if cfg.MarkdownAware {
			if cut := paragraphBreak(runes[start:end]); cut > 0 {
				end = start + cut
			}
		}

		chunks = append(chunks, Chunk{
			Content:   string(runes[start:end]),
			Index:     len(chunks),
			StartChar: start,
			EndChar:   end,
		})
		if end == len(runes) {
			break
		}
		// A paragraph cut can land inside the overlap; the next window
		// must still start past the current one.
		if next := end - overlap; next > start {
			start = next
		} else {
			start = end
		}
	}
	return chunks
}

// paragraphBreak returns the offset just past the last blank line in
// window, or 0 when the window has none.
func paragraphBreak(window []rune) int {
	idx := strings.LastIndex(string(window), "\n\n")
	if idx <= 0 {
		return 0
	}
	return len([]rune(string(window)[:idx])) + 2
}
