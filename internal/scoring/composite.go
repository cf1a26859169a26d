package scoring

import "math"

// Composite holds the three weighted dimensional scores derived from
// Metrics, each rounded to two decimal places.
type Composite struct {
	Information  float64
	Rational     float64
	Experiential float64
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// compose combines the primitives into the three dimensional scores.
// The information score is dampened by the length penalty so very short
// transcripts cannot score as information-dense.
func (e *Engine) compose(m Metrics) Composite {
	w := e.cfg.Weights

	info := (m.ProperNounDensity*w.ProperNoun + m.VocabRichness*w.Richness) * m.LengthPenalty
	rational := m.QuestionDensity*w.Question + m.LogicDensity*w.Logic
	experiential := m.FirstPersonDensity * w.FirstPerson

	return Composite{
		Information:  round2(info),
		Rational:     round2(rational),
		Experiential: round2(experiential),
	}
}
