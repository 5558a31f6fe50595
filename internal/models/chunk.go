package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// DocumentChunk is one embeddable window of extracted page text.
// Written only by the embedding indexer during ingestion; immutable once
// stored; deleted in bulk when a bot is reset or re-crawled.
// (bot, url, chunk_index) is unique.
type DocumentChunk struct {
	ID surrealmodels.RecordID `json:"id"`

	Bot    surrealmodels.RecordID `json:"bot"`
	Source surrealmodels.RecordID `json:"source"`

	URL        string `json:"url"`
	ChunkIndex int    `json:"chunk_index"`
	Title      string `json:"title"`
	Content    string `json:"content"`

	// Embedding dimension is fixed by the configured embedding model and
	// must match the HNSW index in the schema.
	Embedding []float32 `json:"embedding"`

	CreatedAt time.Time `json:"created_at"`
}

// DocumentChunkInput is the input structure for persisting a chunk.
type DocumentChunkInput struct {
	BotID      string    `json:"bot_id"`
	SourceID   string    `json:"source_id"`
	URL        string    `json:"url"`
	ChunkIndex int       `json:"chunk_index"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding"`
}

// RetrievedChunk is the ephemeral projection returned by the vector
// store for one query, ordered by descending similarity.
type RetrievedChunk struct {
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}
