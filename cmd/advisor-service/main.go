package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-stock-advisor/internal/advisor/config"
	"golang-stock-advisor/internal/advisor/delivery/consumer"
	delivery "golang-stock-advisor/internal/advisor/delivery/http"
	_ "golang-stock-advisor/internal/advisor/docs"
	"golang-stock-advisor/internal/advisor/repository"
	"golang-stock-advisor/internal/advisor/service"
	"golang-stock-advisor/internal/advisor/strategy"
	"golang-stock-advisor/internal/marketdata"
	"golang-stock-advisor/pkg/common"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/postgres"
	"golang-stock-advisor/pkg/redis"
	"golang-stock-advisor/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
	"google.golang.org/genai"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the advisor service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Advisor Service", logger.Field("name", cfg.App.Name))

	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// MKSTREAM creates the stream if it doesn't exist
	if err := redisClient.XGroupCreateMkStream(context.Background(), common.RedisStreamPositionMonitor, common.RedisStreamGroup, "0").Err(); err != nil {
		if err.Error() != "BUSYGROUP Consumer Group name already exists" {
			appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
	}

	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.Gemini.APIKey,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini AI client", logger.ErrorField(err))
	}

	telegramNotifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
	}

	// Repositories
	marketRepo := marketdata.NewRepository(db.DB)
	positionRepo := repository.NewLivePositionRepository(db.DB)
	signalRepo := repository.NewExitSignalRepository(db.DB)
	recRepo := repository.NewRecommendationRepository(db.DB)
	performanceRepo := repository.NewPerformanceRepository(db.DB)
	newsRepo := repository.NewStockNewsRepository(db.DB)
	quoteRepo := repository.NewQuoteRepository(cfg, appLogger)
	aiRepo := repository.NewGeminiAIRepository(cfg, appLogger, genAiClient)

	// Services
	detector := service.NewExitSignalDetector(cfg.Monitoring)
	monitoringSvc := service.NewPositionMonitoringService(cfg, appLogger, redisClient.Client,
		detector, positionRepo, signalRepo, recRepo, newsRepo, quoteRepo, telegramNotifier)
	trackerSvc := service.NewPerformanceTrackerService(appLogger, performanceRepo, recRepo, quoteRepo)
	recommendationSvc := service.NewRecommendationService(appLogger, recRepo, trackerSvc)
	positionSvc := service.NewLivePositionService(appLogger, positionRepo, signalRepo)
	backtestSvc := service.NewBacktestService(cfg, appLogger, marketRepo)
	newsIngest := strategy.NewNewsIngestStrategy(cfg, appLogger, aiRepo, newsRepo, marketRepo)

	// Cron-driven passes
	scheduler := service.NewScheduler(cfg, appLogger, monitoringSvc, trackerSvc, newsIngest)
	if err := scheduler.Start(ctx); err != nil {
		appLogger.Fatal("Failed to start scheduler", logger.ErrorField(err))
	}
	defer scheduler.Stop()

	// Stream consumer for on-demand position checks
	redisConsumer := consumer.NewRedisConsumer(cfg, redisClient.Client, monitoringSvc, appLogger)
	redisConsumer.Start(ctx)
	defer redisConsumer.Stop()

	// Echo server
	e := echo.New()
	e.HideBanner = true

	apiV1 := e.Group("/api/v1")

	positionHandler := delivery.NewPositionHandler(positionSvc, monitoringSvc, appLogger)
	positionHandler.RegisterRoutes(apiV1.Group("/positions"))

	signalHandler := delivery.NewSignalHandler(positionSvc, appLogger)
	signalHandler.RegisterRoutes(apiV1.Group("/signals"))

	recommendationHandler := delivery.NewRecommendationHandler(recommendationSvc, appLogger)
	recommendationHandler.RegisterRoutes(apiV1.Group("/recommendations"))

	performanceHandler := delivery.NewPerformanceHandler(trackerSvc, appLogger)
	performanceHandler.RegisterRoutes(apiV1.Group("/performance"))

	backtestHandler := delivery.NewBacktestHandler(backtestSvc, appLogger)
	backtestHandler.RegisterRoutes(apiV1.Group("/backtest"))

	e.GET("/swagger/*", swagger.WrapHandler)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// @title Stock Advisor API
// @version 1.0
// @description Live position monitoring, exit signals, recommendation performance tracking and backtesting.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "advisor-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-advisor.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing advisor-service CLI: %s\n", err)
		os.Exit(1)
	}
}
