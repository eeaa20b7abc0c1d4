package repository

import "fmt"

// BuildSentimentPrompt builds the prompt used for single-article sentiment analysis.
func BuildSentimentPrompt(stockCode, title, content string) string {
	return fmt.Sprintf(`You are a financial news analyst. Analyze the following news article about the stock %s and respond with a single JSON object only, no markdown, matching this schema:

{
  "score": <float between -1.0 (very negative) and 1.0 (very positive)>,
  "label": "<one of: positive, negative, neutral>",
  "key_issue": ["<short keyword>", ...],
  "reason": "<one sentence explaining the score>"
}

Title: %s

Content:
%s`, stockCode, title, content)
}
