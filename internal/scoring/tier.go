package scoring

import (
	"strings"

	"github.com/afiuh/BiliVideoAnalyzer/internal/config"
)

// Tier is the discrete quality label assigned to a content item.
type Tier string

const (
	TierS           Tier = "S"
	TierAExperience Tier = "A(experience)"
	TierAAnalysis   Tier = "A(analysis)"
	TierBInfo       Tier = "B(informational)"
	TierBGeneral    Tier = "B(general)"
	TierC           Tier = "C"
	TierD           Tier = "D"

	// TierX is the flagged/critiqued override. It is never produced by
	// the classifier; only the review workflow assigns it, one-way.
	TierX Tier = "X"
)

// QualifiesForReview reports whether the tier gates the item into the
// review workflow.
func (t Tier) QualifiesForReview() bool {
	s := string(t)
	return strings.HasPrefix(s, "S") || strings.HasPrefix(s, "A")
}

type tierRule struct {
	tier  Tier
	match func(c Composite, chars int) bool
}

// tierRules builds the ordered decision table. Rules are evaluated
// top-to-bottom and the first match wins; D is the fall-through.
func tierRules(th config.Thresholds) []tierRule {
	return []tierRule{
		{TierS, func(c Composite, chars int) bool {
			return c.Rational >= th.SRationalMin && c.Information >= th.SInfoMin && chars >= th.SCharsMin
		}},
		{TierAExperience, func(c Composite, chars int) bool {
			return c.Experiential >= th.AExperienceMin
		}},
		{TierAAnalysis, func(c Composite, chars int) bool {
			return c.Rational >= th.ARationalMin && c.Information >= th.AInfoMin
		}},
		{TierBInfo, func(c Composite, chars int) bool {
			return c.Information >= th.BInfoHigh
		}},
		{TierBGeneral, func(c Composite, chars int) bool {
			return c.Information >= th.BInfoLow
		}},
		{TierC, func(c Composite, chars int) bool {
			return c.Information >= th.CInfoMin
		}},
	}
}

func (e *Engine) classify(c Composite, chars int) Tier {
	for _, r := range e.rules {
		if r.match(c, chars) {
			return r.tier
		}
	}
	return TierD
}

// demotable lists the tiers that the mid-length override pulls down to C.
var demotable = map[Tier]bool{
	TierS:           true,
	TierAExperience: true,
	TierAAnalysis:   true,
	TierBInfo:       true,
	TierBGeneral:    true,
}

// applyLengthOverride is the second classification phase, driven strictly
// by character count: transcripts under 800 characters are forced to D,
// 800-1499 demotes anything above C down to C, and 1500 or more passes
// through untouched. A transcript can score S-level and still be demoted
// solely for being short.
func applyLengthOverride(t Tier, chars int) Tier {
	switch {
	case chars < 800:
		return TierD
	case chars < 1500:
		if demotable[t] {
			return TierC
		}
		return t
	default:
		return t
	}
}
