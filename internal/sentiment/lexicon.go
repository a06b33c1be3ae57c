// Package sentiment – lexicon fallback scorer.
//
// Score is the deterministic rule-based estimator used whenever the external
// classifier is unconfigured or fails. It counts token hits against two fixed
// word sets and converts the hit ratios into a label and confidence. It has
// no failure modes: every input yields a Raw result.
package sentiment

import (
	"fmt"
	"strings"
)

// positiveWords and negativeWords are the process-wide lexicons consulted by
// Score. They are initialized once and never mutated.
var (
	positiveWords = wordSet(
		"good", "great", "excellent", "amazing", "wonderful", "fantastic",
		"awesome", "love", "like", "happy", "joy", "pleased", "satisfied",
		"perfect", "brilliant", "outstanding", "superb", "marvelous",
	)

	negativeWords = wordSet(
		"bad", "terrible", "awful", "horrible", "hate", "dislike", "angry",
		"sad", "disappointed", "frustrated", "annoyed", "upset", "disgusting",
		"pathetic", "useless", "worthless", "dreadful", "appalling",
	)
)

// wordSet builds an immutable membership set from its arguments.
func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Score classifies text with the fixed lexicons.
//
// The text is lowercased and split on non-word characters (word characters
// are ASCII letters, digits, and underscore). Hit ratios are computed over
// the total token count; with no tokens both ratios are 0 and the result is
// neutral. Confidence is capped at 0.8 for the rule-based path, with a fixed
// 0.6 for ties. The neutral score 1-(positive+negative) is reported as-is;
// the normalizer clamps it downstream.
func Score(text string) Raw {
	tokens := tokenize(text)

	var posCount, negCount int
	for _, tok := range tokens {
		if _, ok := positiveWords[tok]; ok {
			posCount++
		}
		if _, ok := negativeWords[tok]; ok {
			negCount++
		}
	}

	var posRatio, negRatio float64
	if n := len(tokens); n > 0 {
		posRatio = float64(posCount) / float64(n)
		negRatio = float64(negCount) / float64(n)
	}

	var label string
	var confidence float64
	switch {
	case posRatio > negRatio:
		label = "positive"
		confidence = min(0.8, posRatio*10)
	case negRatio > posRatio:
		label = "negative"
		confidence = min(0.8, negRatio*10)
	default:
		label = "neutral"
		confidence = 0.6
	}

	neutral := 1 - (posRatio + negRatio)
	return Raw{
		Sentiment:     label,
		Confidence:    &confidence,
		Explanation:   fmt.Sprintf("Rule-based analysis detected %d positive and %d negative words.", posCount, negCount),
		PositiveScore: &posRatio,
		NegativeScore: &negRatio,
		NeutralScore:  &neutral,
	}
}

// tokenize lowercases s and splits it into word-character runs.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !isWordChar(r)
	})
}

// isWordChar reports whether r is an ASCII letter, digit, or underscore.
func isWordChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	}
	return false
}
