package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang-stock-advisor/internal/advisor/config"
	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type QuoteRepository interface {
	GetQuote(ctx context.Context, param dto.GetQuoteParam) (*dto.QuoteData, error)
}

type quoteRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
	cache          *gocache.Cache
}

func NewQuoteRepository(cfg *config.Config, log *logger.Logger) QuoteRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Quotes.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)
	cacheDuration := cfg.Monitoring.QuoteCacheDuration
	if cacheDuration <= 0 {
		cacheDuration = 5 * time.Minute
	}
	return &quoteRepository{
		cfg:            cfg,
		log:            log,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		requestLimiter: requestLimiter,
		cache:          gocache.New(cacheDuration, 10*time.Minute),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

func (r *quoteRepository) GetQuote(ctx context.Context, param dto.GetQuoteParam) (*dto.QuoteData, error) {
	cacheKey := fmt.Sprintf("%s:%s:%s", param.StockCode, param.Range, param.Interval)
	if cached, found := r.cache.Get(cacheKey); found {
		return cached.(*dto.QuoteData), nil
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		r.cfg.Quotes.BaseURL, param.StockCode, param.Range, param.Interval)

	body, err := r.sendRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	var response chartResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, err
	}

	if len(response.Chart.Result) == 0 || len(response.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no chart data for %s", param.StockCode)
	}

	result := response.Chart.Result[0]
	series := result.Indicators.Quote[0]

	quote := &dto.QuoteData{
		StockCode:   param.StockCode,
		MarketPrice: result.Meta.RegularMarketPrice,
		FetchedAt:   time.Now().UTC(),
	}
	for i, ts := range result.Timestamp {
		if i >= len(series.Close) || series.Close[i] == 0 {
			continue
		}
		quote.OHLCV = append(quote.OHLCV, dto.OHLCV{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      series.Open[i],
			High:      series.High[i],
			Low:       series.Low[i],
			Close:     series.Close[i],
			Volume:    series.Volume[i],
		})
	}

	if quote.MarketPrice == 0 && len(quote.OHLCV) > 0 {
		quote.MarketPrice = quote.OHLCV[len(quote.OHLCV)-1].Close
	}

	r.cache.Set(cacheKey, quote, gocache.DefaultExpiration)

	return quote, nil
}

func (r *quoteRepository) sendRequest(ctx context.Context, url string) ([]byte, error) {
	fields := []zap.Field{
		zap.String("url", url),
		zap.Int("max_request_per_minute", r.cfg.Quotes.MaxRequestPerMinute),
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to wait for request limit", fields...)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to create new http request", fields...)
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to send request to quote API", fields...)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fields = append(fields, zap.Int("status_code", resp.StatusCode))
		r.log.ErrorContext(ctx, "Received non-OK response from quote API", fields...)
		return nil, fmt.Errorf("quote API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to read response body from quote API", fields...)
		return nil, err
	}

	return body, nil
}
