package repositories

import "context"

// SentimentScorer converts text to a signed polarity value in [-1,1].
type SentimentScorer interface {
	Score(ctx context.Context, text string) (float64, error)
}
