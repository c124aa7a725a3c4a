package core

import "context"

// Sentiment is the classification attached to free text written by users (reviews, feedback).
type Sentiment struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// SentimentAnalyzer classifies a text.
type SentimentAnalyzer interface {
	Sentiment(ctx context.Context, text string) (Sentiment, error)
}
