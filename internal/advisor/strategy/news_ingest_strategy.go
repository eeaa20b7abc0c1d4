package strategy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang-stock-advisor/internal/advisor/config"
	"golang-stock-advisor/internal/advisor/repository"
	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
)

// NewsIngestStrategy fetches news per stock from an RSS search feed, extracts
// readable article text, and stores it with an AI sentiment score.
type NewsIngestStrategy struct {
	cfg       *config.Config
	log       *logger.Logger
	client    *http.Client
	aiRepo    repository.AIRepository
	newsRepo  repository.StockNewsRepository
	stockRepo StockLister
}

// StockLister supplies the universe of active stock codes.
type StockLister interface {
	GetStocks(ctx context.Context) ([]string, error)
}

func NewNewsIngestStrategy(cfg *config.Config, log *logger.Logger,
	aiRepo repository.AIRepository,
	newsRepo repository.StockNewsRepository,
	stockRepo StockLister) *NewsIngestStrategy {
	return &NewsIngestStrategy{
		cfg:       cfg,
		log:       log,
		client:    &http.Client{Timeout: 30 * time.Second},
		aiRepo:    aiRepo,
		newsRepo:  newsRepo,
		stockRepo: stockRepo,
	}
}

type ingestResult struct {
	StockCode string
	Ingested  int
	Skipped   int
	Failed    int
}

// Execute runs one ingestion pass over the whole stock universe.
func (s *NewsIngestStrategy) Execute(ctx context.Context) error {
	stockCodes, err := s.stockRepo.GetStocks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stocks: %w", err)
	}

	maxConcurrent := s.cfg.News.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		results   []ingestResult
		semaphore = make(chan struct{}, maxConcurrent)
	)

	for _, stockCode := range stockCodes {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}
		stockCode := stockCode
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			result := s.ingestStock(ctx, stockCode)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	wg.Wait()

	ingested, failed := 0, 0
	for _, r := range results {
		ingested += r.Ingested
		failed += r.Failed
	}
	s.log.InfoContext(ctx, "News ingestion pass finished",
		logger.IntField("stocks", len(results)),
		logger.IntField("ingested", ingested),
		logger.IntField("failed", failed),
	)

	return nil
}

func (s *NewsIngestStrategy) ingestStock(ctx context.Context, stockCode string) ingestResult {
	result := ingestResult{StockCode: stockCode}

	feedURL := fmt.Sprintf("%s/search?q=%s+stock&hl=en-US&gl=US&ceid=US:en", s.cfg.News.RSSBaseURL, url.QueryEscape(stockCode))
	fp := gofeed.NewParser()
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to parse RSS feed", logger.ErrorField(err), logger.StringField("stock_code", stockCode))
		result.Failed++
		return result
	}

	sort.Slice(feed.Items, func(i, j int) bool {
		if feed.Items[i].PublishedParsed == nil || feed.Items[j].PublishedParsed == nil {
			return false
		}
		return feed.Items[i].PublishedParsed.After(*feed.Items[j].PublishedParsed)
	})

	maxAge := time.Duration(s.cfg.News.MaxNewsAgeInDays) * 24 * time.Hour
	cutoff := utils.TimeNowUTC().Add(-maxAge)

	for _, item := range feed.Items {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}
		if item.PublishedParsed == nil || item.PublishedParsed.Before(cutoff) {
			result.Skipped++
			continue
		}

		parsedURL, err := url.Parse(item.Link)
		if err != nil {
			result.Failed++
			continue
		}
		if utils.ContainsString(s.cfg.News.BlacklistedDomains, parsedURL.Hostname()) {
			result.Skipped++
			continue
		}

		hash := repository.HashNewsIdentifier(item.Link)
		exists, err := s.newsRepo.Exists(ctx, hash)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to check existing news", logger.ErrorField(err), logger.StringField("link", item.Link))
			result.Failed++
			continue
		}
		if exists {
			result.Skipped++
			continue
		}

		if err := s.processItem(ctx, stockCode, item, parsedURL.Hostname(), hash); err != nil {
			s.log.ErrorContext(ctx, "Failed to process news item", logger.ErrorField(err),
				logger.StringField("stock_code", stockCode), logger.StringField("title", item.Title))
			result.Failed++
			continue
		}
		result.Ingested++
	}

	return result
}

func (s *NewsIngestStrategy) processItem(ctx context.Context, stockCode string, item *gofeed.Item, source, hash string) error {
	content, err := s.extractContent(ctx, item.Link)
	if err != nil {
		return err
	}

	news := entity.StockNews{
		StockCode:      stockCode,
		Title:          utils.CleanToValidUTF8(item.Title),
		Link:           item.Link,
		PublishedAt:    item.PublishedParsed,
		RawContent:     content,
		Source:         source,
		HashIdentifier: hash,
	}

	sentiment, err := s.aiRepo.AnalyzeSentiment(ctx, stockCode, news.Title, news.RawContent)
	if err != nil {
		return fmt.Errorf("failed to analyze sentiment: %w", err)
	}
	news.SentimentScore = utils.ToPointer(sentiment.Score)
	news.SentimentLabel = sentiment.Label
	news.KeyIssue = sentiment.KeyIssue

	if err := s.newsRepo.Create(ctx, &news); err != nil {
		return fmt.Errorf("failed to create stock news: %w", err)
	}

	return nil
}

func (s *NewsIngestStrategy) extractContent(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for news item: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch news content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch news content, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse news content: %w", err)
	}

	docHTML, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(doc.Content())))
	if err != nil {
		return "", fmt.Errorf("failed to parse news content: %w", err)
	}

	content := strings.TrimSpace(docHTML.Text())
	content = strings.NewReplacer("\n", " ", "\t", " ", "\r", " ", "\f", " ").Replace(content)
	return utils.CleanToValidUTF8(content), nil
}
