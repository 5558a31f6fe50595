// Package main provides the crawl worker for sitebot. It polls for
// queued sources, crawls them, and indexes the pages.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sitebotics/sitebot/internal/config"
	"github.com/sitebotics/sitebot/internal/crawler"
	"github.com/sitebotics/sitebot/internal/db"
	"github.com/sitebotics/sitebot/internal/llm"
	"github.com/sitebotics/sitebot/internal/metrics"
)

func main() {
	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()
	slog.SetDefault(logger)

	logger.Info("starting sitebot-worker",
		"poll_interval", cfg.PollInterval,
		"max_pages", cfg.MaxPages,
		"embed_provider", cfg.EmbedProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	dbClient, err := db.NewClient(connectCtx, db.Config{
		URL:            cfg.SurrealDBURL,
		Namespace:      cfg.SurrealDBNamespace,
		Database:       cfg.SurrealDBDatabase,
		Username:       cfg.SurrealDBUser,
		Password:       cfg.SurrealDBPass,
		AuthLevel:      cfg.SurrealDBAuthLevel,
		EmbedDimension: cfg.EmbedDimension,
	}, logger)
	cancel()
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	if err := dbClient.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	embedder, err := llm.NewEmbedder(cfg)
	if err != nil {
		logger.Error("failed to init embedder", "error", err)
		os.Exit(1)
	}

	collector := metrics.NewCollector()
	fetcher := crawler.NewHTTPFetcher(cfg.FetchTimeout, collector, logger)
	orchestrator := crawler.NewOrchestrator(dbClient, fetcher, embedder, collector, logger, cfg.MaxPages, cfg.MinPageText)
	poller := crawler.NewPoller(dbClient, orchestrator, cfg.PollInterval, cfg.StaleCrawlTimeout, logger)

	if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("poller stopped", "error", err)
		os.Exit(1)
	}

	snapshot := collector.Snapshot()
	logger.Info("worker stopped", "uptime_seconds", snapshot.UptimeSeconds)
	if snapshot.CrawlJob != nil {
		logger.Info("crawl totals",
			"jobs", snapshot.CrawlJob.Count,
			"avg_ms", snapshot.CrawlJob.AvgTimeMs,
		)
	}
}
