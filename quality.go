package kreuzberg

import (
	"math"
	"strings"
	"unicode"
)

// qualityDecision is the outcome of scoring extracted text to decide
// whether the OCR stage should run.
type qualityDecision struct {
	Quality   float64
	NeedsOCR  bool
	Reasons   []string
	WordCount int
}

const qualityMinWords = 20

func countWords(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	return len(strings.Fields(s))
}

// scoreQuality grades extracted text on a 0..1 scale using character
// class ratios, garbage density, and fragmentation signals. Scores
// below 0.5 trigger OCR.
func scoreQuality(text string) qualityDecision {
	clean := normalizeText(text)
	wc := countWords(clean)

	total := float64(len([]rune(clean)))
	if total == 0 {
		return qualityDecision{NeedsOCR: true, Reasons: []string{"empty_text"}}
	}

	alpha := float64(countRunes(clean, unicode.IsLetter))
	digits := float64(countRunes(clean, unicode.IsDigit))
	spaces := float64(countRunes(clean, unicode.IsSpace))
	garbage := float64(countGarbageRunes(clean))

	alphaRatio := alpha / total
	digitRatio := digits / total
	spaceRatio := spaces / total
	garbageRatio := garbage / total

	lines := nonEmptyLines(clean)
	avgLineLen, shortLineRatio := lineStats(lines)

	score := 1.0
	var reasons []string

	if wc < qualityMinWords {
		penalty := 0.45
		if wc < qualityMinWords/2 {
			penalty = 0.60
		}
		score -= penalty
		reasons = append(reasons, "low_word_count")
	}

	if alphaRatio < 0.25 {
		penalty := 0.35
		if alphaRatio < 0.15 {
			penalty = 0.50
		}
		if digitRatio > 0.20 {
			penalty *= 0.6
		}
		score -= penalty
		reasons = append(reasons, "low_alpha_ratio")
	}

	if garbageRatio > 0.01 {
		score -= math.Min(0.50, garbageRatio*50)
		reasons = append(reasons, "garbage_chars")
	}

	if len(lines) > 0 && shortLineRatio > 0.75 && avgLineLen < 12 && alphaRatio < 0.40 {
		score -= 0.25
		reasons = append(reasons, "fragmented_lines")
	}

	if spaceRatio > 0.60 || (wc > 10 && spaceRatio < 0.05) {
		score -= 0.15
		reasons = append(reasons, "abnormal_spacing")
	}

	if alphaRatio > 0.60 && wc >= qualityMinWords {
		score += 0.10
		reasons = append(reasons, "good_prose")
	}

	score = math.Max(0, math.Min(1, score))
	return qualityDecision{
		Quality:   score,
		NeedsOCR:  score < 0.50,
		Reasons:   reasons,
		WordCount: wc,
	}
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	s = strings.Join(lines, "\n")

	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(s)
}

func nonEmptyLines(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	raw := strings.Split(s, "\n")
	out := make([]string, 0, len(raw))
	for _, ln := range raw {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

func lineStats(lines []string) (avg float64, shortRatio float64) {
	if len(lines) == 0 {
		return 0, 0
	}
	short, sum := 0, 0
	for _, ln := range lines {
		l := len([]rune(ln))
		sum += l
		if l < 15 {
			short++
		}
	}
	return float64(sum) / float64(len(lines)), float64(short) / float64(len(lines))
}

func countRunes(s string, pred func(rune) bool) int {
	n := 0
	for _, r := range s {
		if pred(r) {
			n++
		}
	}
	return n
}

func countGarbageRunes(s string) int {
	n := 0
	for _, r := range s {
		if r == '\uFFFD' || (unicode.IsControl(r) && r != '\n' && r != '\t') {
			n++
		}
	}
	return n
}
