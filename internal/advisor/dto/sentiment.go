package dto

// SentimentResult is the structured output of news sentiment analysis.
type SentimentResult struct {
	Score    float64  `json:"score"`
	Label    string   `json:"label"`
	KeyIssue []string `json:"key_issue"`
	Reason   string   `json:"reason"`
}
