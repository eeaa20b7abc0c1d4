package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang-stock-advisor/internal/advisor/config"
	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// AIRepository analyzes news content for sentiment.
type AIRepository interface {
	AnalyzeSentiment(ctx context.Context, stockCode, title, content string) (*dto.SentimentResult, error)
}

type geminiAIRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	genAiClient    *genai.Client
	requestLimiter *rate.Limiter
}

// NewGeminiAIRepository creates an AIRepository backed by the Google Gemini API.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) AIRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)
	return &geminiAIRepository{
		cfg:            cfg,
		log:            log,
		genAiClient:    genAiClient,
		requestLimiter: requestLimiter,
	}
}

func (r *geminiAIRepository) AnalyzeSentiment(ctx context.Context, stockCode, title, content string) (*dto.SentimentResult, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	prompt := BuildSentimentPrompt(stockCode, title, content)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to send request to Gemini API",
			logger.ErrorField(err),
			logger.StringField("stock_code", stockCode),
		)
		return nil, fmt.Errorf("failed to send request to Gemini API: %w", err)
	}

	rawJSON := resp.Text()
	if rawJSON == "" {
		return nil, fmt.Errorf("no content found in Gemini response")
	}
	rawJSON = strings.Trim(rawJSON, "`json\n`")

	var result dto.SentimentResult
	if err := json.Unmarshal([]byte(rawJSON), &result); err != nil {
		r.log.ErrorContext(ctx, "Failed to unmarshal sentiment result from Gemini response",
			logger.ErrorField(err),
			logger.StringField("response", rawJSON),
		)
		return nil, fmt.Errorf("failed to unmarshal sentiment result from Gemini response: %w", err)
	}

	if result.Score < -1 {
		result.Score = -1
	}
	if result.Score > 1 {
		result.Score = 1
	}

	return &result, nil
}
