package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pevans/postcrawl"
	"github.com/pevans/postcrawl/config"
	"github.com/pevans/postcrawl/logger"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; variables already set win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		return 1
	}

	configPath := flag.String("config", getEnv(config.EnvConfig, config.DefaultPath), "Path to config file ("+config.EnvConfig+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	ingestor, err := postcrawl.New(cfg, log)
	if err != nil {
		log.Error("failed to set up ingestor", logger.Error(err))
		return 1
	}
	defer ingestor.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("crawl starting",
		logger.String("config", *configPath),
		logger.Int("sources", len(cfg.Sources)),
		logger.Int("max_articles", cfg.MaxArticlesPerRun))

	summary, err := ingestor.Run(ctx)
	if summary != nil {
		log.Info("crawl summary",
			logger.Int("discovered", summary.Discovered),
			logger.Int("processed", summary.Processed),
			logger.Int("written", len(summary.Written)),
			logger.Int("failed", len(summary.Failed)),
			logger.Int("failed_sources", len(summary.SourceErrors)),
			logger.Duration("duration", summary.Duration))
	}
	if err != nil {
		log.Error("crawl failed", logger.Error(err))
		return 1
	}

	return 0
}
