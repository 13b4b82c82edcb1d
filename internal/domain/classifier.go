package domain

import "context"

// Sentiment is the answer of the external text classifier.
type Sentiment struct {
	Label string  `json:"label"` // "Positive" or "Negative"
	Score float64 `json:"score"` // in [0,1]
}

// Classifier is the contract of the sentiment service that runs next to the
// monitor. Nothing in this module implements or calls it.
type Classifier interface {
	Classify(ctx context.Context, text string) (Sentiment, error)
}
