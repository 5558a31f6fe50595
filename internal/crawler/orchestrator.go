package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sitebotics/sitebot/internal/metrics"
	"github.com/sitebotics/sitebot/internal/models"
)

// Store is the persistence surface the crawl state machine drives.
// *db.Client satisfies it.
type Store interface {
	ChunkStore
	QueryClaimNextQueuedSource(ctx context.Context) (*models.Source, error)
	QueryRequeueStaleSources(ctx context.Context, olderThan time.Duration) (int, error)
	QueryMarkSourceComplete(ctx context.Context, id string) error
	QueryMarkSourceError(ctx context.Context, id string, message string) error
	QueryUpdateSourceProgress(ctx context.Context, id string, total, crawled int) error
	QuerySetBotStatus(ctx context.Context, id string, status models.BotStatus) error
	QuerySetBotLive(ctx context.Context, id string) error
	QueryDeleteChunksForSource(ctx context.Context, sourceID string) (int, error)
}

// Orchestrator runs one crawl job end to end: builds the page frontier
// from the homepage, walks it, and drives the source and bot status
// transitions. Page-level failures skip the page; homepage, embedding,
// and persistence failures fail the whole job.
type Orchestrator struct {
	store   Store
	fetcher PageFetcher
	indexer *Indexer
	metrics *metrics.Collector
	logger  *slog.Logger

	maxPages    int
	minPageText int
}

// NewOrchestrator creates a crawl orchestrator. collector may be nil.
func NewOrchestrator(store Store, fetcher PageFetcher, embedder Embedder, collector *metrics.Collector, logger *slog.Logger, maxPages, minPageText int) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:       store,
		fetcher:     fetcher,
		indexer:     NewIndexer(store, embedder, collector, logger),
		metrics:     collector,
		logger:      logger,
		maxPages:    maxPages,
		minPageText: minPageText,
	}
}

// buildFrontier assembles the crawl queue: homepage first, then its
// same-origin links, then the seeded well-known paths, deduplicated and
// capped at maxPages.
func (o *Orchestrator) buildFrontier(homepage, homeHTML string) []string {
	seen := map[string]struct{}{homepage: {}}
	frontier := []string{homepage}

	for _, link := range ExtractLinks(homepage, homeHTML) {
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		frontier = append(frontier, link)
	}
	for _, seeded := range SeedCommonPages(homepage) {
		if _, ok := seen[seeded]; ok {
			continue
		}
		seen[seeded] = struct{}{}
		frontier = append(frontier, seeded)
	}

	if len(frontier) > o.maxPages {
		frontier = frontier[:o.maxPages]
	}
	return frontier
}

// RunJob crawls one claimed source. The source must already be in the
// crawling state; RunJob finishes it as complete or error and moves the
// bot to live or error accordingly.
func (o *Orchestrator) RunJob(ctx context.Context, source *models.Source) error {
	sourceID, err := models.RecordIDString(source.ID)
	if err != nil {
		return fmt.Errorf("source id: %w", err)
	}
	botID, err := models.RecordIDString(source.Bot)
	if err != nil {
		return fmt.Errorf("bot id: %w", err)
	}

	log := o.logger.With("source", sourceID, "bot", botID, "url", source.StartURL)
	log.Info("crawl job started")

	if err := o.store.QuerySetBotStatus(ctx, botID, models.BotStatusTraining); err != nil {
		return o.fail(ctx, sourceID, botID, log, fmt.Errorf("set bot training: %w", err))
	}

	start := time.Now()
	pages, chunks, err := o.crawl(ctx, botID, sourceID, source.StartURL, log)
	if err != nil {
		return o.fail(ctx, sourceID, botID, log, err)
	}

	if err := o.store.QueryMarkSourceComplete(ctx, sourceID); err != nil {
		return o.fail(ctx, sourceID, botID, log, fmt.Errorf("mark source complete: %w", err))
	}
	if err := o.store.QuerySetBotLive(ctx, botID); err != nil {
		return o.fail(ctx, sourceID, botID, log, fmt.Errorf("set bot live: %w", err))
	}

	if o.metrics != nil {
		o.metrics.RecordBatch(metrics.OpCrawlJob, time.Since(start), int64(pages))
	}
	log.Info("crawl job complete", "pages", pages, "chunks", chunks, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// fail records the job failure on the source and bot, then returns the
// original error for the poller's log.
func (o *Orchestrator) fail(ctx context.Context, sourceID, botID string, log *slog.Logger, jobErr error) error {
	log.Error("crawl job failed", "error", jobErr)

	if err := o.store.QueryMarkSourceError(ctx, sourceID, jobErr.Error()); err != nil {
		log.Error("failed to record source error", "error", err)
	}
	if err := o.store.QuerySetBotStatus(ctx, botID, models.BotStatusError); err != nil {
		log.Error("failed to record bot error", "error", err)
	}
	return jobErr
}

// crawl walks the frontier and indexes each page.
// Returns pages indexed and chunks written.
func (o *Orchestrator) crawl(ctx context.Context, botID, sourceID, startURL string, log *slog.Logger) (int, int, error) {
	homepage := NormalizeURL(startURL)
	if homepage == "" {
		homepage = startURL
	}

	homeHTML, err := o.fetcher.Fetch(ctx, homepage)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch homepage: %w", err)
	}

	frontier := o.buildFrontier(homepage, homeHTML)
	log.Info("frontier built", "pages", len(frontier))

	if err := o.store.QueryUpdateSourceProgress(ctx, sourceID, len(frontier), 0); err != nil {
		return 0, 0, fmt.Errorf("update progress: %w", err)
	}

	// A re-crawl replaces the source's previous chunks; the unique
	// (bot, url, chunk_index) index would reject them otherwise.
	if _, err := o.store.QueryDeleteChunksForSource(ctx, sourceID); err != nil {
		return 0, 0, fmt.Errorf("clear previous chunks: %w", err)
	}

	pagesIndexed := 0
	chunksWritten := 0

	for i, pageURL := range frontier {
		if ctx.Err() != nil {
			return pagesIndexed, chunksWritten, ctx.Err()
		}

		var html string
		if pageURL == homepage {
			html = homeHTML
		} else {
			html, err = o.fetcher.Fetch(ctx, pageURL)
			if err != nil {
				// Broken links and non-HTML pages are expected; skip.
				log.Debug("skipping page", "url", pageURL, "error", err)
				o.progress(ctx, sourceID, len(frontier), i+1, log)
				continue
			}
		}

		title := ExtractTitle(html)
		text := ExtractReadableText(html)
		if len(text) < o.minPageText {
			log.Debug("skipping thin page", "url", pageURL, "text_len", len(text))
			o.progress(ctx, sourceID, len(frontier), i+1, log)
			continue
		}

		n, err := o.indexer.IndexPage(ctx, botID, sourceID, pageURL, title, text)
		if err != nil {
			return pagesIndexed, chunksWritten, err
		}
		if n > 0 {
			pagesIndexed++
			chunksWritten += n
		}
		o.progress(ctx, sourceID, len(frontier), i+1, log)
	}

	return pagesIndexed, chunksWritten, nil
}

// progress best-effort updates the source's page counters.
func (o *Orchestrator) progress(ctx context.Context, sourceID string, total, crawled int, log *slog.Logger) {
	if err := o.store.QueryUpdateSourceProgress(ctx, sourceID, total, crawled); err != nil {
		log.Warn("failed to update progress", "error", err)
	}
}
