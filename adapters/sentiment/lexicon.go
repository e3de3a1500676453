package sentiment

import (
	"context"
	"strings"
)

// LexiconScorer is a self-contained polarity scorer backed by small positive
// and negative word lists. It is the default backend: deterministic, offline,
// and adequate for routing decisions where only the sign and rough magnitude
// of polarity matter.
type LexiconScorer struct{}

// NewLexiconScorer creates the offline sentiment backend.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{}
}

var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "happy": {}, "excellent": {}, "wonderful": {},
	"love": {}, "nice": {}, "fine": {}, "amazing": {}, "fantastic": {},
	"thanks": {}, "thank": {}, "glad": {}, "perfect": {}, "well": {},
	"awesome": {}, "pleased": {}, "safe": {}, "calm": {}, "better": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "terrible": {}, "awful": {}, "horrible": {}, "sad": {},
	"angry": {}, "hate": {}, "worse": {}, "worst": {}, "hurt": {},
	"pain": {}, "afraid": {}, "scared": {}, "danger": {}, "dangerous": {},
	"broken": {}, "dead": {}, "dying": {}, "wrong": {}, "problem": {},
}

// negators flip the polarity of the word that follows them.
var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "dont": {}, "don't": {},
}

// Score computes polarity as the normalized difference of positive and
// negative word hits, in [-1,1]. Text with no hits scores 0.
func (l *LexiconScorer) Score(ctx context.Context, text string) (float64, error) {
	words := strings.Fields(strings.ToLower(text))

	var positive, negative int
	negated := false
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:\"'()")
		if _, ok := negators[word]; ok {
			negated = true
			continue
		}

		if _, ok := positiveWords[word]; ok {
			if negated {
				negative++
			} else {
				positive++
			}
		} else if _, ok := negativeWords[word]; ok {
			if negated {
				positive++
			} else {
				negative++
			}
		}
		negated = false
	}

	hits := positive + negative
	if hits == 0 {
		return 0, nil
	}
	return float64(positive-negative) / float64(hits), nil
}
