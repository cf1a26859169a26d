// Package scoring implements the deterministic scoring engine: lexical
// metric extraction, weighted composite scores and the two-phase tier
// classification.
package scoring

import (
	"fmt"

	"github.com/go-ego/gse"

	"github.com/afiuh/BiliVideoAnalyzer/internal/config"
)

// Engine turns raw transcript text into metrics, composite scores and a
// tier. It is pure: the same text and configuration always produce the
// same result, and Score has no side effects.
type Engine struct {
	cfg     config.ScoringConfig
	exclude map[string]struct{}
	rules   []tierRule
	seg     gse.Segmenter
}

// New builds an Engine from an immutable scoring configuration. The word
// segmenter dictionary is loaded once here.
func New(cfg config.ScoringConfig) (*Engine, error) {
	e := &Engine{
		cfg:     cfg,
		exclude: make(map[string]struct{}, len(cfg.ExcludePhrases)),
		rules:   tierRules(cfg.Thresholds),
	}
	for _, p := range cfg.ExcludePhrases {
		e.exclude[p] = struct{}{}
	}

	if err := e.seg.LoadDict(); err != nil {
		return nil, fmt.Errorf("load segmenter dictionary: %w", err)
	}

	return e, nil
}

// Score evaluates one transcript. Defined for the empty string: all
// metrics are exactly zero and the tier is D.
func (e *Engine) Score(text string) (Metrics, Composite, Tier) {
	metrics := e.extractMetrics(text)
	composite := e.compose(metrics)
	tier := e.classify(composite, metrics.TotalChars)
	tier = applyLengthOverride(tier, metrics.TotalChars)
	return metrics, composite, tier
}
