package sentiment

import (
	"context"
	"testing"
)

func TestLexiconScorerPositive(t *testing.T) {
	scorer := NewLexiconScorer()

	polarity, err := scorer.Score(context.Background(), "This is great, I am so happy!")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if polarity <= 0 {
		t.Errorf("polarity = %v, want > 0", polarity)
	}
}

func TestLexiconScorerNegative(t *testing.T) {
	scorer := NewLexiconScorer()

	polarity, err := scorer.Score(context.Background(), "this is terrible, awful and horrible")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if polarity >= 0 {
		t.Errorf("polarity = %v, want < 0", polarity)
	}
	if polarity < -1 {
		t.Errorf("polarity = %v, below valid range", polarity)
	}
}

func TestLexiconScorerNeutral(t *testing.T) {
	scorer := NewLexiconScorer()

	polarity, err := scorer.Score(context.Background(), "the meeting is at three o'clock")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if polarity != 0 {
		t.Errorf("polarity = %v, want 0 for text without lexicon hits", polarity)
	}
}

func TestLexiconScorerNegation(t *testing.T) {
	scorer := NewLexiconScorer()

	polarity, err := scorer.Score(context.Background(), "this is not good")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if polarity >= 0 {
		t.Errorf("polarity = %v, want < 0 for negated positive word", polarity)
	}
}

func TestLexiconScorerRange(t *testing.T) {
	scorer := NewLexiconScorer()

	for _, text := range []string{
		"great great great great",
		"awful awful awful awful",
		"good bad good bad",
		"",
	} {
		polarity, err := scorer.Score(context.Background(), text)
		if err != nil {
			t.Fatalf("score %q: %v", text, err)
		}
		if polarity < -1 || polarity > 1 {
			t.Errorf("Score(%q) = %v, outside [-1,1]", text, polarity)
		}
	}
}
