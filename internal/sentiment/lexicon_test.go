package sentiment

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool { return math.Abs(a-b) < eps }

func TestScore_PositiveText(t *testing.T) {
	// "love", "great", "amazing" hit the positive lexicon; 6 tokens total.
	raw := Score("I love this great amazing product")

	if raw.Sentiment != "positive" {
		t.Fatalf("sentiment = %q; want positive", raw.Sentiment)
	}
	ratio := 3.0 / 6.0
	want := math.Min(0.8, ratio*10)
	if raw.Confidence == nil || !almostEqual(*raw.Confidence, want) {
		t.Fatalf("confidence = %v; want %v", raw.Confidence, want)
	}
	if raw.PositiveScore == nil || !almostEqual(*raw.PositiveScore, ratio) {
		t.Fatalf("positive score = %v; want %v", raw.PositiveScore, ratio)
	}
	if raw.NegativeScore == nil || *raw.NegativeScore != 0 {
		t.Fatalf("negative score = %v; want 0", raw.NegativeScore)
	}
}

func TestScore_NegativeText(t *testing.T) {
	// "terrible", "awful" hit the negative lexicon; 3 tokens total.
	raw := Score("terrible awful experience")

	if raw.Sentiment != "negative" {
		t.Fatalf("sentiment = %q; want negative", raw.Sentiment)
	}
	ratio := 2.0 / 3.0
	want := math.Min(0.8, ratio*10)
	if raw.Confidence == nil || !almostEqual(*raw.Confidence, want) {
		t.Fatalf("confidence = %v; want %v", raw.Confidence, want)
	}
}

func TestScore_NeutralWhenNoHits(t *testing.T) {
	raw := Score("The weather is fine today")

	if raw.Sentiment != "neutral" {
		t.Fatalf("sentiment = %q; want neutral", raw.Sentiment)
	}
	if raw.Confidence == nil || *raw.Confidence != 0.6 {
		t.Fatalf("confidence = %v; want 0.6", raw.Confidence)
	}
	if raw.NeutralScore == nil || *raw.NeutralScore != 1 {
		t.Fatalf("neutral score = %v; want 1", raw.NeutralScore)
	}
}

func TestScore_TieIsNeutral(t *testing.T) {
	raw := Score("good bad")

	if raw.Sentiment != "neutral" {
		t.Fatalf("sentiment = %q; want neutral on tie", raw.Sentiment)
	}
	if raw.Confidence == nil || *raw.Confidence != 0.6 {
		t.Fatalf("confidence = %v; want fixed 0.6", raw.Confidence)
	}
	// Overlapping ratios push the raw neutral score to 0 here; pathological
	// short texts can push it negative, which Normalize clamps.
	if raw.NeutralScore == nil || !almostEqual(*raw.NeutralScore, 0) {
		t.Fatalf("neutral score = %v; want 0", raw.NeutralScore)
	}
}

func TestScore_PunctuationOnlyInput(t *testing.T) {
	raw := Score("?!… —")

	if raw.Sentiment != "neutral" {
		t.Fatalf("sentiment = %q; want neutral", raw.Sentiment)
	}
	if raw.PositiveScore == nil || *raw.PositiveScore != 0 {
		t.Fatalf("positive score = %v; want 0", raw.PositiveScore)
	}
	if raw.NegativeScore == nil || *raw.NegativeScore != 0 {
		t.Fatalf("negative score = %v; want 0", raw.NegativeScore)
	}
}

func TestScore_Deterministic(t *testing.T) {
	const text = "I love this great amazing product, but the ending was awful"
	a := Score(text)
	b := Score(text)

	if a.Sentiment != b.Sentiment {
		t.Fatalf("sentiment differs across runs: %q vs %q", a.Sentiment, b.Sentiment)
	}
	if *a.Confidence != *b.Confidence {
		t.Fatalf("confidence differs across runs: %v vs %v", *a.Confidence, *b.Confidence)
	}
	if a.Explanation != b.Explanation {
		t.Fatalf("explanation differs across runs: %q vs %q", a.Explanation, b.Explanation)
	}
}

func TestScore_ExplanationReportsCounts(t *testing.T) {
	raw := Score("great great bad")

	want := "Rule-based analysis detected 2 positive and 1 negative words."
	if raw.Explanation != want {
		t.Fatalf("explanation = %q; want %q", raw.Explanation, want)
	}
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Hello, World!", []string{"hello", "world"}},
		{"it's split_here too", []string{"it", "s", "split_here", "too"}},
		{"   ", nil},
		{"123 abc", []string{"123", "abc"}},
	}
	for _, tc := range cases {
		got := tokenize(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("tokenize(%q) = %v; want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("tokenize(%q)[%d] = %q; want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}
