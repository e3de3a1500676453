package entities

import "strings"

// SentimentLabel is the three-way classification of a polarity value.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Polarity thresholds. Exact boundary values map to neutral.
const (
	positiveThreshold = 0.1
	negativeThreshold = -0.1

	// escalationThreshold is the polarity below which a segment without a
	// priority keyword is still escalated.
	escalationThreshold = -0.6
)

// Priority levels produced by heuristic classification.
const (
	PriorityUrgent   = 10
	PriorityElevated = 7
	PriorityRoutine  = 1

	MinPriority = 1
	MaxPriority = 10
)

// PriorityKeywords denote urgency regardless of sentiment.
var PriorityKeywords = []string{"help", "emergency", "urgent", "accident", "fire", "hospital"}

// LabelFor maps a polarity value in [-1,1] to a sentiment label.
func LabelFor(polarity float64) SentimentLabel {
	switch {
	case polarity > positiveThreshold:
		return SentimentPositive
	case polarity < negativeThreshold:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// HeuristicPriority classifies a transcribed segment when no override exists.
// A keyword match short-circuits sentiment-based escalation.
func HeuristicPriority(text string, polarity float64) int {
	low := strings.ToLower(text)
	for _, keyword := range PriorityKeywords {
		if strings.Contains(low, keyword) {
			return PriorityUrgent
		}
	}
	if polarity < escalationThreshold {
		return PriorityElevated
	}
	return PriorityRoutine
}

// ValidPriority reports whether p is inside the accepted priority range.
func ValidPriority(p int) bool {
	return p >= MinPriority && p <= MaxPriority
}
