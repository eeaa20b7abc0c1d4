package config

import (
	"time"

	"golang-stock-advisor/pkg/config"
)

// Monitoring holds exit-signal detector and monitoring pass configuration.
type Monitoring struct {
	CronSpec            string        `mapstructure:"cron_spec"`
	MaxConcurrentChecks int           `mapstructure:"max_concurrent_checks"`
	QuoteCacheDuration  time.Duration `mapstructure:"quote_cache_duration"`

	DefaultProfitTargetPct float64 `mapstructure:"default_profit_target_pct"`
	DefaultStopLossPct     float64 `mapstructure:"default_stop_loss_pct"`
	NearStopWarningPct     float64 `mapstructure:"near_stop_warning_pct"`

	ReversalMinConditions  int     `mapstructure:"reversal_min_conditions"`
	SentimentDropThreshold float64 `mapstructure:"sentiment_drop_threshold"`
	MaxHoldDaysMomentum    int     `mapstructure:"max_hold_days_momentum"`
	MaxHoldDaysDip         int     `mapstructure:"max_hold_days_dip"`

	SignalMaxAge time.Duration `mapstructure:"signal_max_age"`

	RedisStreamTimeout         time.Duration `mapstructure:"redis_stream_timeout"`
	RedisStreamRetryInterval   time.Duration `mapstructure:"redis_stream_retry_interval"`
	RedisStreamMaxIdleDuration time.Duration `mapstructure:"redis_stream_max_idle_duration"`
	RedisStreamMaxRetry        int           `mapstructure:"redis_stream_max_retry"`
}

// Performance holds recommendation tracker configuration.
type Performance struct {
	CronSpec string `mapstructure:"cron_spec"`
}

// Quotes holds the configuration for the market quote API.
type Quotes struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// News holds configuration for the news ingestion job.
type News struct {
	CronSpec           string   `mapstructure:"cron_spec"`
	RSSBaseURL         string   `mapstructure:"rss_base_url"`
	MaxConcurrent      int      `mapstructure:"max_concurrent"`
	MaxNewsAgeInDays   int      `mapstructure:"max_news_age_in_days"`
	BlacklistedDomains []string `mapstructure:"blacklisted_domains"`
}

// Backtest holds the default backtest parameters exposed over the API.
type Backtest struct {
	StartingCapital      float64 `mapstructure:"starting_capital"`
	HoldDays             int     `mapstructure:"hold_days"`
	MaxPositions         int     `mapstructure:"max_positions"`
	MinScore             int     `mapstructure:"min_score"`
	BenchmarkCode        string  `mapstructure:"benchmark_code"`
	MaxConcurrentScoring int     `mapstructure:"max_concurrent_scoring"`
	SentimentWeight      float64 `mapstructure:"sentiment_weight"`
}

// Config holds the full configuration for the advisor service.
type Config struct {
	App         config.App      `mapstructure:"app"`
	Logger      config.Logger   `mapstructure:"logger"`
	Database    config.Database `mapstructure:"database"`
	Redis       config.Redis    `mapstructure:"redis"`
	API         config.API      `mapstructure:"api"`
	Monitoring  Monitoring      `mapstructure:"monitoring"`
	Performance Performance     `mapstructure:"performance"`
	Quotes      Quotes          `mapstructure:"quotes"`
	Gemini      Gemini          `mapstructure:"gemini"`
	Telegram    Telegram        `mapstructure:"telegram"`
	News        News            `mapstructure:"news"`
	Backtest    Backtest        `mapstructure:"backtest"`
}

// Load loads the advisor configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
