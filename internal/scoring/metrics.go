package scoring

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Metrics holds the primitive lexical statistics of one transcript.
// Densities are occurrence counts normalized per 1000 characters.
type Metrics struct {
	VirtualDensity     float64
	LogicDensity       float64
	QuestionDensity    float64
	FirstPersonDensity float64
	VocabRichness      float64
	ProperNounDensity  float64
	LengthPenalty      float64
	TotalChars         int
}

var (
	// Matches the original scorer's character classes: CJK unified
	// ideographs plus ASCII alphanumerics.
	tokenPattern  = regexp.MustCompile(`^[\x{4e00}-\x{9fa5}a-zA-Z0-9]+$`)
	hanRunPattern = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]{2,}`)
)

// extractMetrics computes all primitives for one transcript. An empty
// transcript yields the zero Metrics value.
//
// Vocabulary occurrence counts are raw substring counts, not
// token-boundary matches: a short term that happens to be a substring of
// a longer unrelated word still counts. Callers rely on this literal
// behavior.
func (e *Engine) extractMetrics(text string) Metrics {
	totalChars := utf8.RuneCountInString(text)
	if totalChars == 0 {
		return Metrics{}
	}

	perThousand := func(count int) float64 {
		return float64(count) / float64(totalChars) * 1000
	}

	virtualCount := 0
	for _, w := range e.cfg.VirtualWords {
		virtualCount += strings.Count(text, w)
	}

	logicCount := 0
	for _, w := range e.cfg.LogicWords {
		logicCount += strings.Count(text, w)
	}

	questionCount := strings.Count(text, e.cfg.QuestionMark)
	firstPersonCount := strings.Count(text, e.cfg.FirstPerson)

	return Metrics{
		VirtualDensity:     perThousand(virtualCount),
		LogicDensity:       perThousand(logicCount),
		QuestionDensity:    perThousand(questionCount),
		FirstPersonDensity: perThousand(firstPersonCount),
		VocabRichness:      e.vocabRichness(text),
		ProperNounDensity:  perThousand(e.properNounCount(text)),
		LengthPenalty:      math.Min(1.0, float64(totalChars)/1000),
		TotalChars:         totalChars,
	}
}

// vocabRichness is distinct tokens over total tokens after segmentation,
// keeping only purely alphanumeric/CJK tokens. Zero when nothing survives
// the filter.
func (e *Engine) vocabRichness(text string) float64 {
	words := e.seg.Cut(text, true)

	total := 0
	unique := make(map[string]struct{})
	for _, w := range words {
		if !tokenPattern.MatchString(w) {
			continue
		}
		total++
		unique[w] = struct{}{}
	}

	if total == 0 {
		return 0
	}
	return float64(len(unique)) / float64(total)
}

// properNounCount counts distinct contiguous CJK runs of length >= 2,
// minus the configured stop phrases.
func (e *Engine) properNounCount(text string) int {
	candidates := hanRunPattern.FindAllString(text, -1)

	unique := make(map[string]struct{})
	for _, c := range candidates {
		if _, excluded := e.exclude[c]; excluded {
			continue
		}
		unique[c] = struct{}{}
	}
	return len(unique)
}
