package kreuzberg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreQualityEmptyNeedsOCR(t *testing.T) {
	d := scoreQuality("")
	assert.True(t, d.NeedsOCR)
	assert.Contains(t, d.Reasons, "empty_text")
	assert.Zero(t, d.WordCount)
}

func TestScoreQualityGoodProse(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog near the river bank. ", 5)
	d := scoreQuality(text)
	assert.False(t, d.NeedsOCR)
	assert.Greater(t, d.Quality, 0.7)
	assert.Contains(t, d.Reasons, "good_prose")
}

func TestScoreQualityGarbageNeedsOCR(t *testing.T) {
	text := strings.Repeat("����� a ", 20)
	d := scoreQuality(text)
	assert.True(t, d.NeedsOCR)
	assert.Contains(t, d.Reasons, "garbage_chars")
}

func TestScoreQualityFewWords(t *testing.T) {
	d := scoreQuality("just three words")
	assert.Contains(t, d.Reasons, "low_word_count")
	assert.Equal(t, 3, d.WordCount)
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, countWords(""))
	assert.Equal(t, 0, countWords("   \n\t "))
	assert.Equal(t, 2, countWords("two words"))
	assert.Equal(t, 3, countWords("  spaced   out   words  "))
}

func TestNormalizeText(t *testing.T) {
	in := "a  b\r\nc\rd\n\n\n\n\ne"
	out := normalizeText(in)
	assert.Equal(t, "a b\nc\nd\n\ne", out)
}
