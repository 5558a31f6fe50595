package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/sitebotics/sitebot/internal/metrics"
	"github.com/sitebotics/sitebot/internal/models"
)

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore persists embedded chunks.
type ChunkStore interface {
	QueryCreateDocumentChunk(ctx context.Context, input models.DocumentChunkInput) (*models.DocumentChunk, error)
}

// Indexer chunks extracted page text, embeds each chunk, and persists
// the result. Every failure here is fatal to the crawl job: a partially
// indexed page would silently degrade retrieval.
type Indexer struct {
	store    ChunkStore
	embedder Embedder
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewIndexer creates an indexer. collector may be nil.
func NewIndexer(store ChunkStore, embedder Embedder, collector *metrics.Collector, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:    store,
		embedder: embedder,
		metrics:  collector,
		logger:   logger,
	}
}

// embedInput frames a chunk with its page identity so the vector
// carries where the text came from, not just what it says.
func embedInput(title, path, content string) string {
	return fmt.Sprintf("TITLE: %s\nPATH: %s\nCONTENT:\n%s", title, path, content)
}

// IndexPage chunks, embeds, and stores one page's text.
// Returns the number of chunks written.
func (ix *Indexer) IndexPage(ctx context.Context, botID, sourceID, pageURL, title, text string) (int, error) {
	chunks := Chunk(text)
	if len(chunks) == 0 {
		return 0, nil
	}

	path := "/"
	if u, err := url.Parse(pageURL); err == nil && u.Path != "" {
		path = u.Path
	}

	start := time.Now()
	for idx, content := range chunks {
		embedding, err := ix.embedder.Embed(ctx, embedInput(title, path, content))
		if err != nil {
			return idx, fmt.Errorf("embed chunk %d of %s: %w", idx, pageURL, err)
		}

		_, err = ix.store.QueryCreateDocumentChunk(ctx, models.DocumentChunkInput{
			BotID:      botID,
			SourceID:   sourceID,
			URL:        pageURL,
			ChunkIndex: idx,
			Title:      title,
			Content:    content,
			Embedding:  embedding,
		})
		if err != nil {
			return idx, fmt.Errorf("store chunk %d of %s: %w", idx, pageURL, err)
		}
	}

	if ix.metrics != nil {
		ix.metrics.RecordBatch(metrics.OpEmbedding, time.Since(start), int64(len(chunks)))
	}
	ix.logger.Debug("indexed page", "url", pageURL, "chunks", len(chunks))

	return len(chunks), nil
}
