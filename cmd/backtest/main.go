package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang-stock-advisor/internal/advisor/config"
	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/advisor/service"
	"golang-stock-advisor/internal/backtest"
	"golang-stock-advisor/internal/marketdata"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/postgres"
	"golang-stock-advisor/pkg/utils"

	"github.com/spf13/cobra"
)

var (
	configPath      string
	startDate       string
	endDate         string
	startingCapital float64
	holdDays        int
	maxPositions    int
	minScore        int
	benchmarkCode   string
	showTrades      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest over stored price history",
	Run:   runBacktest,
}

func runBacktest(cmd *cobra.Command, args []string) {
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

	db, err := postgres.NewDB(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	req := dto.RunBacktestRequest{
		StartDate: startDate,
		EndDate:   endDate,
	}
	if startingCapital > 0 {
		req.StartingCapital = utils.ToPointer(startingCapital)
	}
	if holdDays > 0 {
		req.HoldDays = utils.ToPointer(holdDays)
	}
	if maxPositions > 0 {
		req.MaxPositions = utils.ToPointer(maxPositions)
	}
	if minScore > 0 {
		req.MinScore = utils.ToPointer(minScore)
	}
	if benchmarkCode != "" {
		req.BenchmarkCode = utils.ToPointer(benchmarkCode)
	}

	backtestSvc := service.NewBacktestService(cfg, appLogger, marketdata.NewRepository(db.DB))
	result, err := backtestSvc.Run(ctx, req)
	if err != nil {
		appLogger.Fatal("Backtest run failed", logger.ErrorField(err))
	}

	fmt.Println(result.Report)
	if showTrades {
		fmt.Println(backtest.FormatTradeLog(result.Trades))
	}
}

func main() {
	rootCmd := &cobra.Command{Use: "backtest"}

	runCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-advisor.yaml", "Path to the configuration file")
	runCmd.Flags().StringVar(&startDate, "start", "", "Backtest start date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&endDate, "end", "", "Backtest end date (YYYY-MM-DD)")
	runCmd.Flags().Float64Var(&startingCapital, "capital", 0, "Starting capital (defaults to config)")
	runCmd.Flags().IntVar(&holdDays, "hold-days", 0, "Holding period in days (defaults to config)")
	runCmd.Flags().IntVar(&maxPositions, "max-positions", 0, "Maximum concurrent positions (defaults to config)")
	runCmd.Flags().IntVar(&minScore, "min-score", 0, "Minimum score to open a position (defaults to config)")
	runCmd.Flags().StringVar(&benchmarkCode, "benchmark", "", "Benchmark stock code for alpha (defaults to config)")
	runCmd.Flags().BoolVar(&showTrades, "trades", false, "Print the trade log")
	_ = runCmd.MarkFlagRequired("start")
	_ = runCmd.MarkFlagRequired("end")

	rootCmd.AddCommand(runCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing backtest CLI: %s\n", err)
		os.Exit(1)
	}
}
