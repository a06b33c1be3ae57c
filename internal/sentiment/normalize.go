// Package sentiment – result normalizer.
//
// Normalize is the single enforcement point for the persisted-result
// invariants. Both the provider path and the fallback path route through it
// before anything is written to storage; no other component may construct a
// Result bound for persistence.
package sentiment

// defaultExplanation is substituted when a raw result carries no explanation.
const defaultExplanation = "Sentiment analysis completed"

// defaultConfidence is substituted when a raw result carries no usable
// confidence value.
const defaultConfidence = 0.5

// Normalize validates and clamps a raw result into the canonical shape.
// It never fails; every invalid or missing field is replaced by a default:
//
//   - Sentiment outside {positive, negative, neutral} becomes "neutral".
//   - A nil confidence becomes 0.5; any value is clamped into [0,1].
//   - A blank explanation becomes a fixed default string.
//   - Nil scores become 0; all scores are clamped into [0,1].
func Normalize(raw Raw) Result {
	label := raw.Sentiment
	switch label {
	case "positive", "negative", "neutral":
	default:
		label = "neutral"
	}

	confidence := defaultConfidence
	if raw.Confidence != nil {
		confidence = *raw.Confidence
	}

	explanation := raw.Explanation
	if explanation == "" {
		explanation = defaultExplanation
	}

	return Result{
		Sentiment:     label,
		Confidence:    clamp01(confidence),
		Explanation:   explanation,
		PositiveScore: clamp01(deref(raw.PositiveScore)),
		NegativeScore: clamp01(deref(raw.NegativeScore)),
		NeutralScore:  clamp01(deref(raw.NeutralScore)),
	}
}

// clamp01 bounds v into the closed interval [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// deref returns *p, or 0 when p is nil.
func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
