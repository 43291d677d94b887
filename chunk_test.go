package kreuzberg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextNilConfig(t *testing.T) {
	assert.Nil(t, chunkText("content", nil))
}

func TestChunkTextEmptyContent(t *testing.T) {
	assert.Nil(t, chunkText("", &ChunkingConfig{MaxChars: 10}))
}

func TestChunkTextSingleChunk(t *testing.T) {
	chunks := chunkText("short", &ChunkingConfig{MaxChars: 100})
	require.Len(t, chunks, 1)
	assert.Equal(t, "short", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, 5, chunks[0].EndChar)
}

func TestChunkTextWindowsAndOverlap(t *testing.T) {
	content := strings.Repeat("abcdefghij", 10) // 100 chars
	chunks := chunkText(content, &ChunkingConfig{MaxChars: 40, Overlap: 10})

	require.GreaterOrEqual(t, len(chunks), 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, c.EndChar-c.StartChar, 40)
		if i > 0 {
			// Each chunk starts inside the previous one by the overlap.
			assert.Equal(t, chunks[i-1].EndChar-10, c.StartChar)
		}
	}
	last := chunks[len(chunks)-1]
	assert.Equal(t, 100, last.EndChar)
}

func TestChunkTextCoversAllContent(t *testing.T) {
	content := strings.Repeat("x", 95)
	chunks := chunkText(content, &ChunkingConfig{MaxChars: 30, Overlap: 5})

	var rebuilt strings.Builder
	prevEnd := 0
	for _, c := range chunks {
		runes := []rune(c.Content)
		rebuilt.WriteString(string(runes[prevEnd-c.StartChar:]))
		prevEnd = c.EndChar
	}
	assert.Equal(t, content, rebuilt.String())
}

func TestChunkTextMarkdownAwareSplitsOnParagraphs(t *testing.T) {
	content := "first paragraph here\n\nsecond paragraph follows after the break and keeps going"
	chunks := chunkText(content, &ChunkingConfig{MaxChars: 40, Overlap: 0, MarkdownAware: true})

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "first paragraph here\n\n", chunks[0].Content)
}

func TestChunkTextMarkdownAwareEarlyBreakAdvances(t *testing.T) {
	// A paragraph break inside the overlap region must not stall or
	// rewind the window.
	content := "ab\n\n" + strings.Repeat("x", 300)
	chunks := chunkText(content, &ChunkingConfig{MaxChars: 100, Overlap: 50, MarkdownAware: true})

	require.NotEmpty(t, chunks)
	assert.Equal(t, "ab\n\n", chunks[0].Content)
	for i := 1; i < len(chunks); i++ {
		assert.Greater(t, chunks[i].StartChar, chunks[i-1].StartChar)
	}
	assert.Equal(t, len([]rune(content)), chunks[len(chunks)-1].EndChar)
}

func TestChunkTextUnsetOverlapUsesDefault(t *testing.T) {
	content := strings.Repeat("z", 5000)
	chunks := chunkText(content, &ChunkingConfig{})

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, chunks[0].EndChar-defaultChunkOverlap, chunks[1].StartChar)
}

func TestChunkTextOverlapLargerThanWindowIsClamped(t *testing.T) {
	content := strings.Repeat("y", 50)
	chunks := chunkText(content, &ChunkingConfig{MaxChars: 10, Overlap: 100})
	require.NotEmpty(t, chunks)
	// Forward progress is guaranteed even with a nonsense overlap.
	assert.Equal(t, 50, chunks[len(chunks)-1].EndChar)
}

func TestChunkTextUnicodeBoundaries(t *testing.T) {
	content := strings.Repeat("日本語テキスト", 10)
	chunks := chunkText(content, &ChunkingConfig{MaxChars: 13, Overlap: 2})
	for _, c := range chunks {
		assert.True(t, len([]rune(c.Content)) <= 13)
	}
}
