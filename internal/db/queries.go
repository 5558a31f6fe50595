package db

import (
	"context"
	"fmt"
	"time"

	"github.com/sitebotics/sitebot/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// first extracts the first record from a query result wrapper.
// Returns nil if the query produced no rows.
func first[T any](results *[]surrealdb.QueryResult[[]T]) *T {
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil
	}
	return &(*results)[0].Result[0]
}

// all extracts all records from a query result wrapper.
func all[T any](results *[]surrealdb.QueryResult[[]T]) []T {
	if results == nil || len(*results) == 0 {
		return []T{}
	}
	return (*results)[0].Result
}

// QueryCreateBot creates a bot. Status defaults to "training" unless the
// input specifies otherwise. Fails with ErrAlreadyExists on a duplicate
// embed key.
func (c *Client) QueryCreateBot(ctx context.Context, input models.BotInput) (*models.Bot, error) {
	status := input.Status
	if status == "" {
		status = string(models.BotStatusTraining)
	}

	results, err := surrealdb.Query[[]models.Bot](ctx, c.db, `
		CREATE bot SET
			workspace_id = $workspace_id,
			name = $name,
			embed_key = $embed_key,
			status = $status
		RETURN AFTER
	`, map[string]any{
		"workspace_id": input.WorkspaceID,
		"name":         input.Name,
		"embed_key":    input.EmbedKey,
		"status":       status,
	})
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", wrapQueryError(err))
	}

	bot := first(results)
	if bot == nil {
		return nil, fmt.Errorf("create bot: no result returned")
	}
	return bot, nil
}

// QueryGetBot retrieves a bot by ID.
// Returns nil if not found.
func (c *Client) QueryGetBot(ctx context.Context, id string) (*models.Bot, error) {
	results, err := surrealdb.Query[[]models.Bot](ctx, c.db, `
		SELECT * FROM type::record("bot", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get bot: %w", err)
	}
	return first(results), nil
}

// QueryGetBotByEmbedKey retrieves a bot by its public embed key. This is
// the widget's only lookup path, so it never exposes record IDs to the
// caller's input.
// Returns nil if not found.
func (c *Client) QueryGetBotByEmbedKey(ctx context.Context, embedKey string) (*models.Bot, error) {
	results, err := surrealdb.Query[[]models.Bot](ctx, c.db, `
		SELECT * FROM bot WHERE embed_key = $embed_key LIMIT 1
	`, map[string]any{"embed_key": embedKey})
	if err != nil {
		return nil, fmt.Errorf("get bot by embed key: %w", err)
	}
	return first(results), nil
}

// QueryListBots returns all bots, newest first.
func (c *Client) QueryListBots(ctx context.Context) ([]models.Bot, error) {
	results, err := surrealdb.Query[[]models.Bot](ctx, c.db, `
		SELECT * FROM bot ORDER BY created_at DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list bots: %w", err)
	}
	return all(results), nil
}

// QuerySetBotStatus updates a bot's training status.
func (c *Client) QuerySetBotStatus(ctx context.Context, id string, status models.BotStatus) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("bot", $id) SET status = $status
	`, map[string]any{"id": id, "status": string(status)})
	if err != nil {
		return fmt.Errorf("set bot status: %w", err)
	}
	return nil
}

// QuerySetBotLive marks a bot live and records the completed crawl time.
func (c *Client) QuerySetBotLive(ctx context.Context, id string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("bot", $id) SET
			status = $status,
			last_crawl_at = time::now()
	`, map[string]any{"id": id, "status": string(models.BotStatusLive)})
	if err != nil {
		return fmt.Errorf("set bot live: %w", err)
	}
	return nil
}

// QueryDeleteBot deletes a bot and all its dependent records.
// Returns count of deleted bots (0 if not found - idempotent).
func (c *Client) QueryDeleteBot(ctx context.Context, id string) (int, error) {
	// Children first so a partial failure never orphans chunk rows
	// against a missing bot.
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE document_chunk WHERE bot = type::record("bot", $id);
		DELETE message WHERE conversation IN
			(SELECT VALUE id FROM conversation WHERE bot = type::record("bot", $id));
		DELETE conversation WHERE bot = type::record("bot", $id);
		DELETE source WHERE bot = type::record("bot", $id);
	`, map[string]any{"id": id})
	if err != nil {
		return 0, fmt.Errorf("delete bot dependents: %w", err)
	}

	results, err := surrealdb.Query[[]models.Bot](ctx, c.db, `
		DELETE type::record("bot", $id) RETURN BEFORE
	`, map[string]any{"id": id})
	if err != nil {
		return 0, fmt.Errorf("delete bot: %w", err)
	}
	return len(all(results)), nil
}

// QueryCreateSource enqueues a crawl job for a bot.
func (c *Client) QueryCreateSource(ctx context.Context, input models.SourceInput) (*models.Source, error) {
	results, err := surrealdb.Query[[]models.Source](ctx, c.db, `
		CREATE source SET
			bot = type::record("bot", $bot_id),
			start_url = $start_url,
			status = $status
		RETURN AFTER
	`, map[string]any{
		"bot_id":    input.BotID,
		"start_url": input.StartURL,
		"status":    string(models.SourceStatusQueued),
	})
	if err != nil {
		return nil, fmt.Errorf("create source: %w", wrapQueryError(err))
	}

	source := first(results)
	if source == nil {
		return nil, fmt.Errorf("create source: no result returned")
	}
	return source, nil
}

// QueryGetSource retrieves a source by ID.
// Returns nil if not found.
func (c *Client) QueryGetSource(ctx context.Context, id string) (*models.Source, error) {
	results, err := surrealdb.Query[[]models.Source](ctx, c.db, `
		SELECT * FROM type::record("source", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return first(results), nil
}

// QueryListSourcesForBot returns a bot's sources, newest first.
func (c *Client) QueryListSourcesForBot(ctx context.Context, botID string) ([]models.Source, error) {
	results, err := surrealdb.Query[[]models.Source](ctx, c.db, `
		SELECT * FROM source
		WHERE bot = type::record("bot", $bot_id)
		ORDER BY created_at DESC
	`, map[string]any{"bot_id": botID})
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return all(results), nil
}

// QueryClaimNextQueuedSource atomically claims the oldest queued source
// for crawling. The conditional UPDATE guarantees at most one worker wins
// a given source: a claim that lost the race returns no rows, and this
// function moves on to report no work.
// Returns nil when no queued source exists.
func (c *Client) QueryClaimNextQueuedSource(ctx context.Context) (*models.Source, error) {
	candidates, err := surrealdb.Query[[]models.Source](ctx, c.db, `
		SELECT * FROM source
		WHERE status = $queued
		ORDER BY created_at ASC
		LIMIT 1
	`, map[string]any{"queued": string(models.SourceStatusQueued)})
	if err != nil {
		return nil, fmt.Errorf("select queued source: %w", err)
	}

	candidate := first(candidates)
	if candidate == nil {
		return nil, nil
	}

	id, err := models.RecordIDString(candidate.ID)
	if err != nil {
		return nil, fmt.Errorf("claim source: %w", err)
	}

	results, err := surrealdb.Query[[]models.Source](ctx, c.db, `
		UPDATE type::record("source", $id) SET
			status = $crawling,
			last_error = NONE,
			claimed_at = time::now(),
			pages_total = 0,
			pages_crawled = 0
		WHERE status = $queued
		RETURN AFTER
	`, map[string]any{
		"id":       id,
		"crawling": string(models.SourceStatusCrawling),
		"queued":   string(models.SourceStatusQueued),
	})
	if err != nil {
		return nil, fmt.Errorf("claim source: %w", wrapQueryError(err))
	}

	// Empty result means another worker claimed it between the SELECT
	// and the UPDATE. Treat it as no work; the next tick retries.
	return first(results), nil
}

// QueryMarkSourceComplete finishes a source's crawl run.
func (c *Client) QueryMarkSourceComplete(ctx context.Context, id string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("source", $id) SET
			status = $complete,
			last_crawl_at = time::now(),
			claimed_at = NONE
	`, map[string]any{"id": id, "complete": string(models.SourceStatusComplete)})
	if err != nil {
		return fmt.Errorf("mark source complete: %w", err)
	}
	return nil
}

// QueryMarkSourceError records a fatal crawl failure on a source.
func (c *Client) QueryMarkSourceError(ctx context.Context, id string, message string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("source", $id) SET
			status = $error,
			last_error = $message,
			claimed_at = NONE
	`, map[string]any{
		"id":      id,
		"error":   string(models.SourceStatusError),
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("mark source error: %w", err)
	}
	return nil
}

// QueryUpdateSourceProgress writes the orchestrator's page counters so
// status UIs can render crawl progress.
func (c *Client) QueryUpdateSourceProgress(ctx context.Context, id string, total, crawled int) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("source", $id) SET
			pages_total = $total,
			pages_crawled = $crawled
	`, map[string]any{"id": id, "total": total, "crawled": crawled})
	if err != nil {
		return fmt.Errorf("update source progress: %w", err)
	}
	return nil
}

// QueryRequeueStaleSources returns sources abandoned in the crawling
// state (claimed longer ago than olderThan) back to the queue. Recovers
// jobs whose worker crashed mid-crawl.
// Returns count of requeued sources.
func (c *Client) QueryRequeueStaleSources(ctx context.Context, olderThan time.Duration) (int, error) {
	results, err := surrealdb.Query[[]models.Source](ctx, c.db, `
		UPDATE source SET
			status = $queued,
			claimed_at = NONE
		WHERE status = $crawling
			AND claimed_at != NONE
			AND claimed_at < time::now() - duration::from::secs($secs)
		RETURN AFTER
	`, map[string]any{
		"queued":   string(models.SourceStatusQueued),
		"crawling": string(models.SourceStatusCrawling),
		"secs":     int(olderThan.Seconds()),
	})
	if err != nil {
		return 0, fmt.Errorf("requeue stale sources: %w", err)
	}
	return len(all(results)), nil
}

// QueryRequeueSourcesForBot re-enqueues all of a bot's sources for a
// fresh crawl (retraining).
// Returns count of requeued sources.
func (c *Client) QueryRequeueSourcesForBot(ctx context.Context, botID string) (int, error) {
	results, err := surrealdb.Query[[]models.Source](ctx, c.db, `
		UPDATE source SET
			status = $queued,
			last_error = NONE,
			claimed_at = NONE,
			pages_total = 0,
			pages_crawled = 0
		WHERE bot = type::record("bot", $bot_id)
		RETURN AFTER
	`, map[string]any{
		"queued": string(models.SourceStatusQueued),
		"bot_id": botID,
	})
	if err != nil {
		return 0, fmt.Errorf("requeue sources: %w", err)
	}
	return len(all(results)), nil
}

// QueryCreateDocumentChunk persists one embedded chunk. The unique
// (bot, url, chunk_index) index rejects duplicates with ErrAlreadyExists.
func (c *Client) QueryCreateDocumentChunk(ctx context.Context, input models.DocumentChunkInput) (*models.DocumentChunk, error) {
	results, err := surrealdb.Query[[]models.DocumentChunk](ctx, c.db, `
		CREATE document_chunk SET
			bot = type::record("bot", $bot_id),
			source = type::record("source", $source_id),
			url = $url,
			chunk_index = $chunk_index,
			title = $title,
			content = $content,
			embedding = $embedding
		RETURN AFTER
	`, map[string]any{
		"bot_id":      input.BotID,
		"source_id":   input.SourceID,
		"url":         input.URL,
		"chunk_index": input.ChunkIndex,
		"title":       input.Title,
		"content":     input.Content,
		"embedding":   input.Embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("create document chunk: %w", wrapQueryError(err))
	}

	chunk := first(results)
	if chunk == nil {
		return nil, fmt.Errorf("create document chunk: no result returned")
	}
	return chunk, nil
}

// QueryMatchChunks performs KNN vector search over a bot's chunks.
// Results are ordered by descending cosine similarity. The KNN count
// must be a literal in SurrealQL, so it is formatted into the query.
// HNSW ef=40 for better recall.
func (c *Client) QueryMatchChunks(ctx context.Context, botID string, embedding []float32, limit int) ([]models.RetrievedChunk, error) {
	sql := fmt.Sprintf(`
		SELECT url, title, content,
			vector::similarity::cosine(embedding, $emb) AS similarity
		FROM document_chunk
		WHERE bot = type::record("bot", $bot_id)
			AND embedding <|%d,40|> $emb
		ORDER BY similarity DESC
	`, limit)

	results, err := surrealdb.Query[[]models.RetrievedChunk](ctx, c.db, sql, map[string]any{
		"bot_id": botID,
		"emb":    embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("match chunks: %w", err)
	}
	return all(results), nil
}

// QueryDeleteChunksForBot removes all of a bot's chunks. Used before a
// re-crawl and when resetting a bot's knowledge.
// Returns count of deleted chunks.
func (c *Client) QueryDeleteChunksForBot(ctx context.Context, botID string) (int, error) {
	results, err := surrealdb.Query[[]models.DocumentChunk](ctx, c.db, `
		DELETE document_chunk
		WHERE bot = type::record("bot", $bot_id)
		RETURN BEFORE
	`, map[string]any{"bot_id": botID})
	if err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}
	return len(all(results)), nil
}

// QueryDeleteChunksForSource removes the chunks a previous run of one
// source produced, so a re-crawl starts from a clean slate without
// touching the bot's other sources.
func (c *Client) QueryDeleteChunksForSource(ctx context.Context, sourceID string) (int, error) {
	results, err := surrealdb.Query[[]models.DocumentChunk](ctx, c.db, `
		DELETE document_chunk
		WHERE source = type::record("source", $source_id)
		RETURN BEFORE
	`, map[string]any{"source_id": sourceID})
	if err != nil {
		return 0, fmt.Errorf("delete source chunks: %w", err)
	}
	return len(all(results)), nil
}

// QueryCountChunksForBot returns how many chunks a bot has indexed.
func (c *Client) QueryCountChunksForBot(ctx context.Context, botID string) (int, error) {
	results, err := surrealdb.Query[[]struct {
		Count int `json:"count"`
	}](ctx, c.db, `
		SELECT count() AS count FROM document_chunk
		WHERE bot = type::record("bot", $bot_id)
		GROUP ALL
	`, map[string]any{"bot_id": botID})
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}

	row := first(results)
	if row == nil {
		return 0, nil
	}
	return row.Count, nil
}
