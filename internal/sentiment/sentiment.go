// Package sentiment contains the pure classification core: the canonical
// result types, the rule-based lexicon fallback scorer, and the normalizer
// that every result must pass through before persistence.
//
// Nothing in this package performs I/O. The provider client (internal/llm)
// and the analysis service (internal/services) compose these pieces.
package sentiment

import "encoding/json"

// Raw is an unvalidated classification result as produced by a provider or
// the fallback scorer. Numeric fields are pointers so that "absent" can be
// distinguished from a literal zero; Normalize substitutes defaults for nil.
type Raw struct {
	Sentiment     string
	Confidence    *float64
	Explanation   string
	PositiveScore *float64
	NegativeScore *float64
	NeutralScore  *float64
}

// Result is a normalized classification. Invariants (guaranteed by
// Normalize, the sole constructor outside tests):
//   - Sentiment is exactly "positive", "negative", or "neutral".
//   - Confidence and all three scores are within [0,1].
type Result struct {
	Sentiment     string  `json:"sentiment"`
	Confidence    float64 `json:"confidence"`
	Explanation   string  `json:"explanation"`
	PositiveScore float64 `json:"positive_score"`
	NegativeScore float64 `json:"negative_score"`
	NeutralScore  float64 `json:"neutral_score"`
}

// rawWire mirrors the provider JSON contract with loosely typed fields so a
// payload with, say, a string confidence still decodes instead of erroring.
type rawWire struct {
	Sentiment     any `json:"sentiment"`
	Confidence    any `json:"confidence"`
	Explanation   any `json:"explanation"`
	PositiveScore any `json:"positiveScore"`
	NegativeScore any `json:"negativeScore"`
	NeutralScore  any `json:"neutralScore"`
}

// ParseRaw decodes a provider JSON payload into a Raw result. It is tolerant
// of missing keys and wrongly typed values (those become zero values / nil
// and are later defaulted by Normalize); it fails only when the payload is
// not parseable JSON at all.
func ParseRaw(data []byte) (Raw, error) {
	var w rawWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Raw{}, err
	}
	raw := Raw{
		Confidence:    asFloat(w.Confidence),
		PositiveScore: asFloat(w.PositiveScore),
		NegativeScore: asFloat(w.NegativeScore),
		NeutralScore:  asFloat(w.NeutralScore),
	}
	if s, ok := w.Sentiment.(string); ok {
		raw.Sentiment = s
	}
	if s, ok := w.Explanation.(string); ok {
		raw.Explanation = s
	}
	return raw, nil
}

// asFloat returns a pointer to the numeric value of v, or nil when v is not
// a JSON number.
func asFloat(v any) *float64 {
	if f, ok := v.(float64); ok {
		return &f
	}
	return nil
}
